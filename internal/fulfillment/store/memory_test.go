package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auszug/internal/domain"
)

func TestMemoryOrderStore(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is ErrNotFound", func(t *testing.T) {
		store := NewMemoryOrderStore()
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("callers get copies, not shared state", func(t *testing.T) {
		store := NewMemoryOrderStore()
		order := &domain.Order{
			ID:        uuid.New(),
			Status:    domain.StatusOpen,
			Documents: []domain.StoredArtifact{{FileName: "a.pdf"}},
		}
		require.NoError(t, store.Save(ctx, order))

		// Mutating the saved original or a fetched copy must not leak into
		// the store.
		order.Status = domain.StatusCancelled
		order.Documents[0].FileName = "tampered.pdf"

		got, err := store.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, got.Status)
		assert.Equal(t, "a.pdf", got.Documents[0].FileName)

		got.Documents = append(got.Documents, domain.StoredArtifact{FileName: "b.pdf"})
		again, err := store.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, again.Documents, 1)
	})

	t.Run("save overwrites", func(t *testing.T) {
		store := NewMemoryOrderStore()
		order := &domain.Order{ID: uuid.New(), Status: domain.StatusOpen}
		require.NoError(t, store.Save(ctx, order))

		order.Status = domain.StatusProcessed
		require.NoError(t, store.Save(ctx, order))

		got, err := store.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessed, got.Status)
	})
}
