package auth

import (
	"context"
	"errors"
)

// Common errors used by repository/use cases
var (
	ErrNotFound          = errors.New("not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository abstracts the credential store.
// Implementations may be in-memory, SQL, NoSQL, etc.
type UserRepository interface {
	// Create fails with ErrUserAlreadyExists when a record for the email
	// exists, including one written concurrently after a GetByEmail miss.
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	// CurrentStorageBytes is the footprint of the credential store alone.
	CurrentStorageBytes(ctx context.Context) (int64, error)
}
