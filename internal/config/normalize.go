package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArtifactsDir) == "" {
		c.Paths.ArtifactsDir = defaultArtifactsDir
	}
	if c.Paths.ArtifactsDir, err = expandPath(c.Paths.ArtifactsDir); err != nil {
		return fmt.Errorf("paths.artifacts_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProviders() {
	fillFromEnv(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fillFromEnv(&c.Azure.APIKey, "AZURE_OPENAI_API_KEY")
	fillFromEnv(&c.Azure.Endpoint, "AZURE_OPENAI_ENDPOINT")
	fillFromEnv(&c.Google.APIKey, "GOOGLE_API_KEY", "VEO3_API_KEY")
	fillFromEnv(&c.Runway.APIKey, "RUNWAY_API_KEY")

	c.OpenAI.BaseURL = defaulted(c.OpenAI.BaseURL, defaultOpenAIBaseURL)
	c.Azure.APIVersion = defaulted(c.Azure.APIVersion, defaultAzureAPIVer)
	c.Google.BaseURL = defaulted(c.Google.BaseURL, defaultGoogleBaseURL)
	c.Runway.BaseURL = defaulted(c.Runway.BaseURL, defaultRunwayBaseURL)
	c.Runway.Version = defaulted(c.Runway.Version, defaultRunwayVersion)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(defaulted(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(defaulted(c.Logging.Level, defaultLogLevel))
}

func fillFromEnv(target *string, names ...string) {
	if strings.TrimSpace(*target) != "" {
		return
	}
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
			return
		}
	}
}

func defaulted(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
