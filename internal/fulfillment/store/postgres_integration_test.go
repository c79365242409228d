//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auszug/internal/domain"
	"auszug/pkg/testutil/containers"
)

const ordersDDL = `
CREATE TABLE IF NOT EXISTS orders (
    id                 UUID PRIMARY KEY,
    order_number       TEXT NOT NULL,
    customer_name      TEXT NOT NULL DEFAULT '',
    customer_email     TEXT NOT NULL DEFAULT '',
    variant            TEXT NOT NULL,
    signed             BOOLEAN NOT NULL DEFAULT FALSE,
    digital_storage    BOOLEAN NOT NULL DEFAULT FALSE,
    street             TEXT NOT NULL DEFAULT '',
    house_number       TEXT NOT NULL DEFAULT '',
    postal_code        TEXT NOT NULL DEFAULT '',
    town               TEXT NOT NULL DEFAULT '',
    federal_state      TEXT NOT NULL DEFAULT '',
    registry_area      TEXT NOT NULL DEFAULT '',
    folio_number       TEXT NOT NULL DEFAULT '',
    registry_area_name TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'open',
    documents          JSONB NOT NULL DEFAULT '[]',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func TestPostgresOrderStore(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, ordersDDL)
	store := NewPostgres(pg.DB)

	newOrder := func() *domain.Order {
		return &domain.Order{
			ID:            uuid.New(),
			OrderNumber:   "A-2025-0042",
			CustomerName:  "Maria Huber",
			CustomerEmail: "maria@example.at",
			Variant:       domain.VariantCurrent,
			Street:        "Kärntner Straße",
			HouseNumber:   "1",
			PostalCode:    "1010",
			Town:          "Wien",
			Status:        domain.StatusOpen,
			CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
		}
	}

	t.Run("save and get round-trip", func(t *testing.T) {
		order := newOrder()
		require.NoError(t, store.Save(ctx, order))

		got, err := store.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.OrderNumber, got.OrderNumber)
		assert.Equal(t, order.Variant, got.Variant)
		assert.Equal(t, domain.StatusOpen, got.Status)
		assert.Empty(t, got.Documents)
	})

	t.Run("unknown id is ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upsert only rewrites the pipeline-owned fields", func(t *testing.T) {
		order := newOrder()
		require.NoError(t, store.Save(ctx, order))

		// Simulate the pipeline writing back resolution and documents while
		// trying to smuggle in a customer change that must not take effect.
		order.CustomerName = "Someone Else"
		order.RegistryArea = "01004"
		order.FolioNumber = "1879"
		order.RegistryAreaName = "Innere Stadt"
		order.Status = domain.StatusProcessed
		order.Documents = []domain.StoredArtifact{{
			FileName:    "grundbuch_01004_1879_aktuell.pdf",
			Path:        "A-2025-0042/1_grundbuch_01004_1879_aktuell.pdf",
			URL:         "https://storage.example/doc.pdf",
			Size:        1234,
			ContentType: "application/pdf",
			Visible:     true,
			AddedAt:     time.Now().UTC().Truncate(time.Millisecond),
		}}
		require.NoError(t, store.Save(ctx, order))

		got, err := store.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "Maria Huber", got.CustomerName)
		assert.Equal(t, "01004", got.RegistryArea)
		assert.Equal(t, "1879", got.FolioNumber)
		assert.Equal(t, domain.StatusProcessed, got.Status)
		require.Len(t, got.Documents, 1)
		assert.Equal(t, "grundbuch_01004_1879_aktuell.pdf", got.Documents[0].FileName)
		assert.Equal(t, int64(1234), got.Documents[0].Size)
	})
}
