package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/relux/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP inspector",
	Long:  `Starts a relux instance exposing its relays and actions over HTTP, with Prometheus metrics and SSE snapshot streams.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		withDemo, _ := cmd.Flags().GetBool("demo")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if err := cli.RunServe(sigCtx, cli.ServeOptions{Config: cfg, WithDemo: withDemo, Out: os.Stdout}); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides http.addr)")
	serveCmd.Flags().Bool("demo", false, "Register the demo module")
}
