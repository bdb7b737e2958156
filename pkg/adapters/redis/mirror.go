package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/relux/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Mirror implements ports.SnapshotSink using Redis.
// The latest snapshot of each relay is stored as JSON under prefix+key, an
// index ZSET tracks published keys, and every publish is announced on the
// prefix+"events" channel so other processes can follow changes.
type Mirror struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Change is the notification sent on the events channel.
type Change struct {
	Key      string          `json:"key"`
	Snapshot json.RawMessage `json:"snapshot"`
}

type Option func(*Mirror)

// WithTTL sets the expiration for mirrored snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(m *Mirror) {
		m.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(m *Mirror) {
		m.prefix = prefix
	}
}

// New creates a new Redis mirror with options.
func New(address, password string, db int, opts ...Option) *Mirror {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis mirror from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Mirror {
	m := &Mirror{
		client: client,
		prefix: "relux:snapshot:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Mirror) key(key string) string {
	return m.prefix + key
}

func (m *Mirror) indexKey() string {
	return m.prefix + "index"
}

// Channel returns the pub/sub channel changes are announced on.
func (m *Mirror) Channel() string {
	return m.prefix + "events"
}

// Publish stores snapshot and announces the change.
func (m *Mirror) Publish(ctx context.Context, key string, snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	change, err := json.Marshal(Change{Key: key, Snapshot: data})
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	pipe := m.client.Pipeline()

	// 1. Save JSON with TTL (0 means no expiration)
	pipe.Set(ctx, m.key(key), data, m.ttl)

	// 2. Add to Index (ZSET). Score = expiry time; far future without TTL.
	score := float64(time.Now().Add(m.ttl).Unix())
	if m.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, m.indexKey(), backend.Z{
		Score:  score,
		Member: key,
	})

	// 3. Announce
	pipe.Publish(ctx, m.Channel(), change)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Load retrieves the latest snapshot JSON for key.
func (m *Mirror) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := m.client.Get(ctx, m.key(key)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Delete removes the snapshot and its index entry.
func (m *Mirror) Delete(ctx context.Context, key string) error {
	pipe := m.client.Pipeline()
	pipe.Del(ctx, m.key(key))
	pipe.ZRem(ctx, m.indexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// Keys returns the mirrored keys, pruning expired index entries first.
func (m *Mirror) Keys(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := m.client.ZRemRangeByScore(ctx, m.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired snapshots: %w", err)
	}

	keys, err := m.client.ZRange(ctx, m.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return keys, nil
}

// Changes subscribes to the events channel. The returned channel is closed
// when ctx is done. Malformed messages are skipped.
func (m *Mirror) Changes(ctx context.Context) (<-chan Change, error) {
	sub := m.client.Subscribe(ctx, m.Channel())
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping checks connectivity.
func (m *Mirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
