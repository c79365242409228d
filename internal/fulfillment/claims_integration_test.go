//go:build integration

package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auszug/pkg/testutil/containers"
)

func TestRedisClaims(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	claims := NewRedisClaims(rc.Client)
	orderID := uuid.New()

	t.Run("acquire is exclusive until released", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		ok, err := claims.Acquire(ctx, orderID, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = claims.Acquire(ctx, orderID, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, claims.Release(ctx, orderID))
		ok, err = claims.Acquire(ctx, orderID, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("claim expires on its own", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))

		ok, err := claims.Acquire(ctx, orderID, 100*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			ok, err := claims.Acquire(ctx, orderID, time.Minute)
			return err == nil && ok
		}, 2*time.Second, 50*time.Millisecond)
	})
}
