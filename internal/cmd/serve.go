package cmd

import (
	"fmt"

	"github.com/dionysius/pkggateway/internal/app"
	"github.com/dionysius/pkggateway/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway's HTTP server",
	Long: `Run the gateway's HTTP server, answering APT and YUM/DNF repository
requests for whichever GitHub owner/repo each request path names.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Shutdown()

	return application.Serve(ctx)
}
