package rates

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tipbot/internal/models"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestMemorySnapshotStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()

	snapshot, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, snapshot.LastUpdated.IsZero())

	want := models.RateSnapshot{
		Rates:       map[string]decimal.Decimal{"USD": decimal.NewFromInt(90)},
		LastUpdated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisSnapshotStore(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	store := NewRedisSnapshotStore(client, "")

	t.Run("missing key is an empty snapshot", func(t *testing.T) {
		snapshot, err := store.Load(ctx)
		require.NoError(t, err)
		assert.True(t, snapshot.LastUpdated.IsZero())
		assert.Empty(t, snapshot.Rates)
	})

	t.Run("round trip", func(t *testing.T) {
		updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.Save(ctx, models.RateSnapshot{
			Rates: map[string]decimal.Decimal{
				"USD": decimal.RequireFromString("90.1234"),
				"EUR": decimal.RequireFromString("98.5"),
			},
			LastUpdated: updated,
		}))
		assert.True(t, mr.Exists(DefaultRedisKey))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.True(t, got.LastUpdated.Equal(updated))
		assert.Equal(t, "90.1234", got.Rates["USD"].String())
	})

	t.Run("corrupt value", func(t *testing.T) {
		require.NoError(t, mr.Set(DefaultRedisKey, "not json"))
		_, err := store.Load(ctx)
		assert.Error(t, err)
	})

	t.Run("server down", func(t *testing.T) {
		mr.Close()
		_, err := store.Load(ctx)
		assert.Error(t, err)
		assert.Error(t, store.Save(ctx, models.RateSnapshot{}))
	})
}

func TestProvider_SharedRedisSnapshot(t *testing.T) {
	ctx := context.Background()
	_, client := setupRedis(t)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	first := &fakeFetcher{rates: map[string]decimal.Decimal{"USD": decimal.NewFromInt(90), "EUR": decimal.NewFromInt(99)}}
	second := &fakeFetcher{rates: map[string]decimal.Decimal{"USD": decimal.NewFromInt(1), "EUR": decimal.NewFromInt(1)}}

	a := newTestProvider(first, clock, WithSnapshotStore(NewRedisSnapshotStore(client, "test:rates")))
	b := newTestProvider(second, clock, WithSnapshotStore(NewRedisSnapshotStore(client, "test:rates")))

	_, ok := a.GetRate(ctx, "USD")
	require.True(t, ok)

	r, ok := b.GetRate(ctx, "USD")
	require.True(t, ok)
	assert.True(t, r.Equal(decimal.NewFromInt(90)))
	assert.Zero(t, second.Calls())
}
