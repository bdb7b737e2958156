package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/relux"
	"github.com/aretw0/relux/internal/config"
	"github.com/aretw0/relux/pkg/adapters/redis"
	"github.com/aretw0/relux/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// instance is a relux handle plus what the CLI built around it.
type instance struct {
	*relux.Relux
	registry *prometheus.Registry
	mirror   *redis.Mirror
}

// createInstance builds and binds a relux instance with standard CLI conventions.
func createInstance(ctx context.Context, cfg config.Config, logger *slog.Logger) (*instance, error) {
	inst := &instance{}
	opts := []relux.Option{relux.WithLogger(logger)}

	// 1. Logger & Hooks
	if cfg.Level() <= slog.LevelDebug {
		opts = append(opts, relux.WithLifecycleHooks(createDebugHooks(logger)))
	}

	// 2. Metrics
	if cfg.Metrics {
		inst.registry = prometheus.NewRegistry()
		inst.registry.MustRegister(collectors.NewGoCollector())
		m, err := observability.NewMetrics(inst.registry)
		if err != nil {
			return nil, fmt.Errorf("error initializing metrics: %w", err)
		}
		opts = append(opts, relux.WithMetrics(m))
	}

	// 3. Snapshot mirror
	if cfg.Redis.Addr != "" {
		mirrorOpts := []redis.Option{redis.WithPrefix(cfg.Redis.Prefix)}
		if ttl := cfg.Redis.TTL.Std(); ttl > 0 {
			mirrorOpts = append(mirrorOpts, redis.WithTTL(ttl))
		}
		mirror := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, mirrorOpts...)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := mirror.Ping(pingCtx); err != nil {
			_ = mirror.Close()
			return nil, fmt.Errorf("error connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		inst.mirror = mirror
		opts = append(opts, relux.WithSink(mirror))
		logger.Info("Mirroring snapshots to redis", "addr", cfg.Redis.Addr, "channel", mirror.Channel())
	}

	// 4. Initialize
	r, err := relux.New(opts...)
	if err != nil {
		if inst.mirror != nil {
			_ = inst.mirror.Close()
		}
		return nil, fmt.Errorf("error initializing relux: %w", err)
	}
	inst.Relux = r
	return inst, nil
}

// shutdown closes the instance and whatever was built around it.
func (i *instance) shutdown(ctx context.Context) error {
	err := i.Close(ctx)
	if i.mirror != nil {
		if cerr := i.mirror.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
