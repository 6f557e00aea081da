// Command cosinor runs a cosinor fit over a spreadsheet from the command line
// and follows the analysis event stream of a running API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cosinor",
		Short:        "Cosinor rhythm analysis",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("config", "", "Path to configuration file")
	cmd.AddCommand(analyzeCmd(), watchCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
