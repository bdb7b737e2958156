package main

import (
	"context"
	"os"

	"github.com/aretw0/relux/internal/cli"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the ticker demo in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if ticks, _ := cmd.Flags().GetInt("ticks"); ticks > 0 {
			cfg.Demo.Ticks = ticks
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return cli.RunDemo(sigCtx, cli.DemoOptions{Config: cfg, Out: os.Stdout})
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the demo wiring as a Mermaid diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunGraph(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(graphCmd)
	demoCmd.Flags().Int("ticks", 0, "Number of ticks (overrides demo.ticks)")
}
