// Command catastro queries the cadastral registry from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catastro",
		Short:         "Municipal cadastral registry tools",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool("latency", false, "Simulate registry latency")
	root.PersistentFlags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")

	root.AddCommand(newSearchCmd())
	root.AddCommand(newFichaCmd())
	root.AddCommand(newAnchorsCmd())
	return root
}
