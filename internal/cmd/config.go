package cmd

import (
	"fmt"

	"github.com/dionysius/pkggateway/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the loaded configuration, with secrets redacted",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if cfg.Signing.Passphrase != "" {
		cfg.Signing.Passphrase = "***REDACTED***"
	}
	if cfg.Signing.PrivateKey != "" {
		cfg.Signing.PrivateKey = "***REDACTED***"
	}
	if cfg.GitHub.Token != "" {
		cfg.GitHub.Token = "***REDACTED***"
	}

	output, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	fmt.Fprintln(realStdout, string(output))
	return nil
}
