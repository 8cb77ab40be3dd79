package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads the configuration from the specified path or searches
// default locations. Unlike a required-config tool, an absent config
// file is not an error here: the gateway can run entirely from the
// GPG_*/UPSTREAM_TOKEN/CACHE_TTL env vars and built-in defaults.
func Load(configPath string) (*Config, error) {
	var cfg Config

	cfgFile, err := findConfigFile(configPath)
	if err == nil {
		data, readErr := os.ReadFile(cfgFile)
		if readErr != nil {
			return nil, readErr
		}
		if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
			return nil, unmarshalErr
		}
		cfg.ConfigDir = filepath.Dir(cfgFile)
	} else if configPath != "" {
		// an explicitly named config file that doesn't exist is still
		// an error; only the default-location search is optional
		return nil, err
	}

	cfg.defaults()

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// findConfigFile searches for the configuration file in standard
// locations: an explicit --config flag value, then $XDG_CONFIG_HOME,
// then ~/.config, then /etc.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if !fileExists(explicitPath) {
			return "", os.ErrNotExist
		}
		return explicitPath, nil
	}

	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "pkggateway", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "pkggateway", "config.yaml"))
	}
	candidates = append(candidates, "/etc/pkggateway/config.yaml")

	for _, file := range candidates {
		if fileExists(file) {
			return file, nil
		}
	}

	return "", os.ErrNotExist
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
