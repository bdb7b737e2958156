package main

import (
	"fmt"

	"github.com/aretw0/relux"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of relux",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relux version %s\n", relux.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
