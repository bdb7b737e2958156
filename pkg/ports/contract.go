package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/relux/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contractSnapshot struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// RunSnapshotSinkContract runs a suite of tests to verify that a SnapshotSink
// implementation adheres to the defined interface contract.
func RunSnapshotSinkContract(t *testing.T, sink SnapshotSink) {
	ctx := context.Background()
	key := "contract.Snapshot-" + time.Now().Format("20060102150405")

	t.Run("Publish and Load", func(t *testing.T) {
		err := sink.Publish(ctx, key, contractSnapshot{Count: 1, Label: "one"})
		require.NoError(t, err, "Publish should not return error")

		raw, err := sink.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")

		var got contractSnapshot
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, contractSnapshot{Count: 1, Label: "one"}, got)
	})

	t.Run("Publish overwrites", func(t *testing.T) {
		require.NoError(t, sink.Publish(ctx, key, contractSnapshot{Count: 2}))

		raw, err := sink.Load(ctx, key)
		require.NoError(t, err)

		var got contractSnapshot
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, 2, got.Count)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := sink.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Keys", func(t *testing.T) {
		other := key + "-other"
		require.NoError(t, sink.Publish(ctx, other, contractSnapshot{}))
		defer func() {
			_ = sink.Delete(ctx, other)
		}()

		keys, err := sink.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, key)
		assert.Contains(t, keys, other)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, sink.Delete(ctx, key), "Delete should not return error")

		_, err := sink.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		keys, err := sink.Keys(ctx)
		require.NoError(t, err)
		assert.NotContains(t, keys, key)
	})

	t.Run("Unencodable snapshot", func(t *testing.T) {
		err := sink.Publish(ctx, key+"-bad", make(chan int))
		assert.Error(t, err)
	})
}
