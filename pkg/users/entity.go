package users

import (
	"context"
	"math"

	"github.com/artem13815/accounts/pkg/auth"
)

// Filter selects users for listing. Email is a case-insensitive substring.
type Filter struct {
	Page  int
	Limit int
	Email string
}

// Offset saturates at math.MaxInt for pages past any reachable row.
func (f Filter) Offset() int {
	if f.Limit > 0 && f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// Page is one page of users in registration order.
type Page struct {
	Users []auth.Identity `json:"users"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// Repository is the read side of the credential store used for listing.
type Repository interface {
	List(ctx context.Context, f Filter) ([]auth.User, int, error)
}
