package auth

import (
	"context"

	"github.com/artem13815/accounts/pkg/audit"
)

// TokenGenerator abstracts token creation (e.g., JWT).
// It allows use cases to stay framework-agnostic.
type TokenGenerator interface {
	Generate(ctx context.Context, user User) (Token, error)
}

// PasswordHasher hashes and verifies passwords. Verify reports false with a
// nil error on a plain mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// EventRecorder appends audit events.
type EventRecorder interface {
	Append(ctx context.Context, entry audit.Entry) (audit.Event, error)
}
