// Package config loads and validates the TOML configuration file, applying
// defaults, tilde expansion, and environment-variable fallbacks for provider
// credentials.
package config
