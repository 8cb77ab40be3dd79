// Package config loads the gateway's process-wide, init-only
// configuration: the HTTP client, signing key material, GitHub feed
// credentials, cache TTLs, and server bind address.
package config

import (
	"os"
	"runtime"
	"strconv"
)

// Config is the complete gateway configuration.
type Config struct {
	HTTP      HTTPConfig    `yaml:"http,omitempty"`
	Signing   SigningConfig `yaml:"signing,omitempty"`
	GitHub    GitHubConfig  `yaml:"github,omitempty"`
	Serve     ServeConfig   `yaml:"serve,omitempty"`
	Workers   WorkersConfig `yaml:"workers,omitempty"`
	Cache     CacheConfig   `yaml:"cache,omitempty"`
	ConfigDir string        `yaml:"-"`
}

// HTTPConfig configures the client used for upstream range-fetches and
// release listing.
type HTTPConfig struct {
	UserAgent       string `yaml:"user_agent,omitempty"`
	Timeout         int    `yaml:"timeout,omitempty"`
	MaxIdleConns    int    `yaml:"max_idle_conns,omitempty"`
	MaxConnsPerHost int    `yaml:"max_conns_per_host,omitempty"`
}

// SigningConfig carries the OpenPGP key material. Values are armored
// text, either set directly in YAML or overlaid from the GPG_* env
// vars at load time.
type SigningConfig struct {
	PrivateKey string `yaml:"private_key,omitempty"`
	PublicKey  string `yaml:"public_key,omitempty"`
	Passphrase string `yaml:"passphrase,omitempty"`
}

// GitHubConfig configures the upstream feed client.
type GitHubConfig struct {
	Token string `yaml:"token,omitempty"`
}

// ServeConfig configures the HTTP listener.
type ServeConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// WorkersConfig sizes the decode pools.
type WorkersConfig struct {
	Decode uint `yaml:"decode,omitempty"`
}

// CacheConfig overrides the two-tier cache's TTLs, in seconds.
type CacheConfig struct {
	ContentTTL     int `yaml:"content_ttl,omitempty"`
	FingerprintTTL int `yaml:"fingerprint_ttl,omitempty"`
}

// defaults applies the env-var overlay and built-in defaults. Env vars
// take precedence over YAML when both are set.
func (c *Config) defaults() {
	if v := os.Getenv("GPG_PRIVATE_KEY"); v != "" {
		c.Signing.PrivateKey = v
	}
	if v := os.Getenv("GPG_PASSPHRASE"); v != "" {
		c.Signing.Passphrase = v
	}
	if v := os.Getenv("GPG_PUBLIC_KEY"); v != "" {
		c.Signing.PublicKey = v
	}
	if v := os.Getenv("UPSTREAM_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.ContentTTL = n
		}
	}

	if c.Cache.ContentTTL == 0 {
		c.Cache.ContentTTL = 86400
	}
	if c.Cache.FingerprintTTL == 0 {
		c.Cache.FingerprintTTL = 300
	}

	if c.Workers.Decode == 0 {
		c.Workers.Decode = uint(runtime.NumCPU() * 4)
	}

	if c.Serve.Host == "" {
		c.Serve.Host = "localhost"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 8080
	}
}
