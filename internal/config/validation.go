package config

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrServeHostEmpty        = errors.New("serve host is required")
	ErrServePortInvalid      = errors.New("serve port must be between 1 and 65535")
	ErrCacheTTLNegative      = errors.New("cache ttl must not be negative")
	ErrSigningPassphraseOnly = errors.New("signing passphrase set without a private key")
)

// validate performs validation on the loaded configuration, after
// defaults has already filled in the zero values. There is little to
// check here: the gateway takes almost all of its input per-request
// from the URL path, which the router validates on its own terms.
func validate(cfg *Config) error {
	if cfg.Serve.Host == "" {
		return ErrServeHostEmpty
	}
	if cfg.Serve.Port < 1 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrServePortInvalid, cfg.Serve.Port)
	}

	if cfg.Cache.ContentTTL < 0 {
		return fmt.Errorf("%w: content_ttl=%d", ErrCacheTTLNegative, cfg.Cache.ContentTTL)
	}
	if cfg.Cache.FingerprintTTL < 0 {
		return fmt.Errorf("%w: fingerprint_ttl=%d", ErrCacheTTLNegative, cfg.Cache.FingerprintTTL)
	}

	if cfg.Signing.Passphrase != "" && cfg.Signing.PrivateKey == "" {
		return ErrSigningPassphraseOnly
	}

	return nil
}
