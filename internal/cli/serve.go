package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/relux"
	"github.com/aretw0/relux/internal/config"
	"github.com/aretw0/relux/internal/demo"
	httpAdapter "github.com/aretw0/relux/pkg/adapters/http"
)

// ServeOptions configures RunServe.
type ServeOptions struct {
	Config config.Config
	// WithDemo registers the demo module and its actions.
	WithDemo bool
	Out      io.Writer
}

// RunServe exposes a relux instance over HTTP until ctx is cancelled.
func RunServe(ctx context.Context, opts ServeOptions) error {
	logger := createLogger(opts.Config)
	inst, err := createInstance(ctx, opts.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := inst.shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown incomplete", "err", err)
		}
	}()

	var handlerOpts []httpAdapter.Option
	handlerOpts = append(handlerOpts, httpAdapter.WithLogger(logger))
	if inst.registry != nil {
		handlerOpts = append(handlerOpts, httpAdapter.WithGatherer(inst.registry))
	}
	if opts.WithDemo {
		if err := inst.Register(demo.New().Module()); err != nil {
			return err
		}
		handlerOpts = append(handlerOpts, demo.HTTPOptions()...)
	}

	srv := &http.Server{
		Addr:              opts.Config.HTTP.Addr,
		Handler:           httpAdapter.NewHandler(inst.Relux, handlerOpts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Out, "relux %s listening on %s", relux.Version, srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		printSystemMessage(opts.Out, "Start shutdown (%s)...", stopReason(ctx))

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		printSystemMessage(opts.Out, "relux server stopped gracefully")
		return nil
	}
}
