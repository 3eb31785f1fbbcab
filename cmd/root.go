package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vigil-monitoring/vigil/cmd/serve"
	"github.com/vigil-monitoring/vigil/cmd/version"
	"github.com/vigil-monitoring/vigil/pkg/logger"
)

// NewRootCmd builds the base command when called without any subcommands.
func NewRootCmd() *cobra.Command {
	log := logger.NewDefault()
	rootCmd := &cobra.Command{
		Use:   "vigil",
		Short: "A synthetic endpoint monitoring daemon",
		Long: `vigil periodically probes a configured set of HTTP(S) and TCP endpoints,
tracks which ones are currently failing, and notifies alert channels
when failures begin or clear.`,
	}

	rootCmd.AddCommand(serve.Command(log))
	rootCmd.AddCommand(version.NewVersionCmd())
	return rootCmd
}
