package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndMessage(t *testing.T) {
	t.Run("typed error keeps kind through wrapping", func(t *testing.T) {
		err := fmt.Errorf("register: %w", New(ErrConflict, "Email already exists"))
		assert.ErrorIs(t, err, ErrConflict)
		assert.NotErrorIs(t, err, ErrInternal)
		assert.Equal(t, ErrConflict, Kind(err))
		assert.Equal(t, "Email already exists", Message(err))
	})

	t.Run("cause is hidden from the public message", func(t *testing.T) {
		cause := errors.New("pq: connection refused")
		err := Wrap(ErrInternal, "Error registering user.", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "Error registering user.", Message(err))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("untyped errors collapse to internal", func(t *testing.T) {
		err := errors.New("boom")
		assert.Equal(t, ErrInternal, Kind(err))
		assert.Equal(t, "internal server error", Message(err))
	})
}
