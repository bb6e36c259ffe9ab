package health

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckError reports which dependency failed.
type CheckError struct {
	Dependency string
	Err        error
}

func (e *CheckError) Error() string { return e.Dependency + ": " + e.Err.Error() }

func (e *CheckError) Unwrap() error { return e.Err }

// ReadinessUseCase describes readiness verification.
type ReadinessUseCase interface {
	Ready(ctx context.Context) error
}

type service struct {
	checkers []Checker
}

// NewService aggregates dependency checkers. With none, the service is
// always ready.
func NewService(checkers ...Checker) ReadinessUseCase {
	return &service{checkers: checkers}
}

// Ready runs every checker concurrently and returns the first failure as a
// *CheckError.
func (s *service) Ready(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ch := range s.checkers {
		g.Go(func() error {
			if err := ch.Check(ctx); err != nil {
				return &CheckError{Dependency: ch.Name(), Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}
