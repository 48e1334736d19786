package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd prints the CLI's build-time version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mux CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mux version %s\n", rootCmd.Version)
		},
	}
}
