package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/relux/pkg/adapters/redis"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMirror(t *testing.T, opts ...redis.Option) (*redis.Mirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisMirror_Contract(t *testing.T) {
	mirror, _ := newMirror(t)
	ports.RunSnapshotSinkContract(t, mirror)
}

func TestRedisMirror_Prefix(t *testing.T) {
	mirror, mr := newMirror(t, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := mirror.Publish(ctx, "counter.Snapshot", map[string]int{"count": 1})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:counter.Snapshot"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")
	assert.Equal(t, "custom:app:events", mirror.Channel())
}

func TestRedisMirror_TTL_Expiration(t *testing.T) {
	mirror, mr := newMirror(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, mirror.Publish(ctx, "ttl.Snapshot", 42))

	keys, err := mirror.Keys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "ttl.Snapshot")

	mr.FastForward(2 * time.Second)

	_, err = mirror.Load(ctx, "ttl.Snapshot")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestRedisMirror_Changes(t *testing.T) {
	mirror, _ := newMirror(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	changes, err := mirror.Changes(ctx)
	require.NoError(t, err)

	require.NoError(t, mirror.Publish(ctx, "counter.Snapshot", map[string]int{"count": 3}))

	select {
	case c := <-changes:
		assert.Equal(t, "counter.Snapshot", c.Key)
		var got map[string]int
		require.NoError(t, json.Unmarshal(c.Snapshot, &got))
		assert.Equal(t, 3, got["count"])
	case <-ctx.Done():
		t.Fatal("no change received")
	}
}

func TestRedisMirror_Ping(t *testing.T) {
	mirror, mr := newMirror(t)
	assert.NoError(t, mirror.Ping(context.Background()))
	mr.Close()
	assert.Error(t, mirror.Ping(context.Background()))
}
