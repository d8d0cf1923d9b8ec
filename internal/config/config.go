package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	ArtifactsDir string `toml:"artifacts_dir"`
}

// Defaults contains fallback video parameters applied when the CLI omits them.
type Defaults struct {
	Width           int `toml:"width"`
	Height          int `toml:"height"`
	DurationSeconds int `toml:"duration_seconds"`
}

// Retry contains backoff bounds for transient provider failures.
type Retry struct {
	BaseDelaySeconds int     `toml:"base_delay_seconds"`
	MaxDelaySeconds  int     `toml:"max_delay_seconds"`
	JitterFraction   float64 `toml:"jitter_fraction"`
}

// Stitch contains pacing settings for multi-clip sequences.
type Stitch struct {
	DelayBetweenClipsSeconds int `toml:"delay_between_clips_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// OpenAI contains credentials for the OpenAI Videos API (Sora).
type OpenAI struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Azure contains credentials for Sora deployments hosted on Azure OpenAI.
type Azure struct {
	APIKey     string `toml:"api_key"`
	Endpoint   string `toml:"endpoint"`
	APIVersion string `toml:"api_version"`
}

// Google contains credentials for the Gemini API Veo models.
type Google struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Runway contains credentials for the RunwayML API.
type Runway struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Version string `toml:"version"`
}

// Config encapsulates all configuration values for vidstitch.
//
// Provider API keys may instead be supplied through the conventional
// environment variables (OPENAI_API_KEY, AZURE_OPENAI_API_KEY,
// AZURE_OPENAI_ENDPOINT, GOOGLE_API_KEY, RUNWAY_API_KEY); the file wins when
// both are set.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Defaults Defaults `toml:"defaults"`
	Retry    Retry    `toml:"retry"`
	Stitch   Stitch   `toml:"stitch"`
	Logging  Logging  `toml:"logging"`
	OpenAI   OpenAI   `toml:"openai"`
	Azure    Azure    `toml:"azure"`
	Google   Google   `toml:"google"`
	Runway   Runway   `toml:"runway"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vidstitch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment fallbacks applied.
// The second return is the resolved path, the third whether a file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("vidstitch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.ArtifactsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
