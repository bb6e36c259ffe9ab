package audit

import (
	"context"

	"github.com/artem13815/accounts/pkg/apperr"
)

// Defaults applied to zero Page/Limit values.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// UseCase exposes audit log listing to the transport layer.
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
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return Page{}, apperr.New(apperr.ErrInvalidInput, "from must not be after to")
	}
	page, err := s.repo.Query(ctx, f)
	if err != nil {
		return Page{}, apperr.Wrap(apperr.ErrInternal, "Error fetching logs.", err)
	}
	page.Page, page.Limit = f.Page, f.Limit
	return page, nil
}
