package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would break a run. It is
// called by Load; credentials are deliberately not validated here because
// which provider runs is a per-command decision.
func (c *Config) Validate() error {
	var problems []string

	if c.Defaults.Width <= 0 || c.Defaults.Height <= 0 {
		problems = append(problems, "defaults.width and defaults.height must be positive")
	}
	if c.Defaults.DurationSeconds <= 0 {
		problems = append(problems, "defaults.duration_seconds must be positive")
	}
	if c.Retry.BaseDelaySeconds <= 0 {
		problems = append(problems, "retry.base_delay_seconds must be positive")
	}
	if c.Retry.MaxDelaySeconds < c.Retry.BaseDelaySeconds {
		problems = append(problems, "retry.max_delay_seconds must be >= retry.base_delay_seconds")
	}
	if c.Retry.JitterFraction < 0 || c.Retry.JitterFraction >= 1 {
		problems = append(problems, "retry.jitter_fraction must be in [0, 1)")
	}
	if c.Stitch.DelayBetweenClipsSeconds < 0 {
		problems = append(problems, "stitch.delay_between_clips_seconds must not be negative")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not supported (debug, info, warn, error)", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
