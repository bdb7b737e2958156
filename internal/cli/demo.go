package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/aretw0/relux"
	"github.com/aretw0/relux/internal/config"
	"github.com/aretw0/relux/internal/demo"
	"github.com/aretw0/relux/internal/presentation/graph"
	"github.com/aretw0/relux/internal/presentation/tui"
)

// DemoOptions configures RunDemo.
type DemoOptions struct {
	Config  config.Config
	Printer *tui.Printer
	// Out receives banner and system messages.
	Out io.Writer
}

// RunDemo registers the demo module, starts its ticker and prints the
// snapshot table on every change until the ticker finishes or ctx ends.
func RunDemo(ctx context.Context, opts DemoOptions) error {
	if opts.Printer == nil {
		opts.Printer = tui.NewPrinter(os.Stdout)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Printer.Rich() {
		tui.PrintBanner(opts.Out, relux.Version)
	}

	logger := createLogger(opts.Config)
	inst, err := createInstance(ctx, opts.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := inst.shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown incomplete", "err", err)
		}
	}()

	d := demo.New()
	if err := inst.Register(d.Module()); err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	updates := d.Relay.Watch(watchCtx)
	finished := d.Finished.Watch(watchCtx)

	printSystemMessage(opts.Out, "Ticking %d times every %s", opts.Config.Demo.Ticks, opts.Config.Demo.Tick.Std())
	if err := inst.Dispatch(ctx, demo.StartTicker{Every: opts.Config.Demo.Tick.Std(), Count: opts.Config.Demo.Ticks}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			printSystemMessage(opts.Out, "Interrupted (%s)", stopReason(ctx))
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			if err := opts.Printer.Snapshots("Snapshots", inst.Relays()); err != nil {
				return err
			}
		case f, ok := <-finished:
			if !ok {
				return nil
			}
			printSystemMessage(opts.Out, "Ticker finished after %d ticks", f.Ticks)
			return nil
		}
	}
}

// RunGraph writes the Mermaid wiring diagram of the demo module to w.
func RunGraph(w io.Writer) error {
	r := relux.NewDetached()
	defer r.Close(context.Background())

	if err := r.Register(demo.New().Module()); err != nil {
		return err
	}
	_, err := io.WriteString(w, graph.GenerateMermaid(graph.Inspect(r)))
	return err
}
