package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/dionysius/pkggateway/internal/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	verbose    bool
	realStdout *os.File
)

var rootCmd = &cobra.Command{
	Use:   "pkggateway",
	Short: "On-demand Debian/RPM repository gateway for GitHub releases",
	Long: `pkggateway presents a GitHub repository's tagged releases as a
compliant APT and YUM/DNF repository, range-fetching just enough of
each release asset to extract its package metadata and synthesizing
the Packages/Release and repodata index files on the fly. Binary
downloads are always redirected to the upstream CDN.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		realStdout = os.Stdout
		os.Stdout, _ = os.Open(os.DevNull)

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		handler := log.NewHandler(realStdout, level)
		slog.SetDefault(slog.New(handler))

		cmd.SetOut(realStdout)
		cmd.SetErr(realStdout)
	},
}

// ExecuteContext runs the root command with context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/pkggateway/config.yaml or /etc/pkggateway/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}
