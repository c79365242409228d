//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auszug/pkg/testutil/containers"
)

const auditDDL = `
CREATE TABLE IF NOT EXISTS audit_entries (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    order_id     UUID NOT NULL,
    ts           TIMESTAMPTZ NOT NULL,
    kind         TEXT NOT NULL,
    message      TEXT NOT NULL,
    amount_cents BIGINT NOT NULL DEFAULT 0
)`

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	pg.Exec(t, auditDDL)
	store := NewPostgres(pg.DB)

	orderID := uuid.New()
	other := uuid.New()
	base := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.Append(ctx, orderID,
		Entry{Timestamp: base, Kind: KindFetch, Message: "retrieved document"},
		Entry{Timestamp: base.Add(time.Second), Kind: KindCost, Message: "GB_AKTUELL KG 01004 EZ 1879", AmountCents: 356},
	))
	require.NoError(t, store.Append(ctx, other,
		Entry{Timestamp: base, Kind: KindFailure, Message: "gateway down"},
	))

	entries, err := store.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, KindFetch, entries[0].Kind)
	assert.Equal(t, KindCost, entries[1].Kind)
	assert.Equal(t, int64(356), entries[1].AmountCents)
	assert.True(t, entries[0].Timestamp.Before(entries[1].Timestamp))
	assert.Equal(t, int64(356), TotalCents(entries))

	none, err := store.ListByOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
