package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/synapsocial/synapsocial/cmd/synapctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "synapctl",
		Short:        "Operator tools for SynapSocial",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.ScanCmd())
	rootCmd.AddCommand(cmd.PermissionsCmd())
	rootCmd.AddCommand(cmd.ClassifyCmd())
	rootCmd.AddCommand(cmd.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
