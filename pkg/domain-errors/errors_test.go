package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeStorage, "store document"))
	})

	t.Run("preserves the cause for errors.Is", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUpstream, "validate folio")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "upstream: validate folio: connection refused")
	})
}

func TestCodeOf(t *testing.T) {
	t.Run("reads through wrapping layers", func(t *testing.T) {
		inner := New(CodeNoMatch, "nothing matched")
		outer := fmt.Errorf("resolve order: %w", inner)
		assert.Equal(t, CodeNoMatch, CodeOf(outer))
	})

	t.Run("uncoded errors default to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("outermost code wins on double wrap", func(t *testing.T) {
		err := Wrap(New(CodeNotFound, "pair unknown"), CodeUpstream, "gateway call")
		assert.Equal(t, CodeUpstream, CodeOf(err))
	})
}

func TestHasCode(t *testing.T) {
	err := Newf(CodeConflict, "order %s is already processed", "A-1")
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("boom"), CodeInternal))
}
