package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a credential record. Email is the natural key.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is a user without its password hash; it is what leaves the
// package.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// Token is a signed session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        Identity
}
