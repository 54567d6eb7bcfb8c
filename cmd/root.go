package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stellar",
	Short: "StellarStack control plane and operator CLI",
	Long: `stellar runs the StellarStack control plane and provides
operator commands for inspecting nodes, servers and transfers.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
