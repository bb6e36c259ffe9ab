package users

import (
	"context"

	"github.com/artem13815/accounts/pkg/apperr"
	"github.com/artem13815/accounts/pkg/auth"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// UseCase lists registered users.
type UseCase interface {
	List(ctx context.Context, f Filter) (Page, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) UseCase { return &service{repo: repo} }

func (s *service) List(ctx context.Context, f Filter) (Page, error) {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Page < 1 || f.Limit < 1 {
		return Page{}, apperr.New(apperr.ErrInvalidInput, "page and limit must be positive")
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	list, total, err := s.repo.List(ctx, f)
	if err != nil {
		return Page{}, apperr.Wrap(apperr.ErrInternal, "Error fetching users.", err)
	}
	out := make([]auth.Identity, 0, len(list))
	for _, u := range list {
		out = append(out, u.Identity())
	}
	return Page{Users: out, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
