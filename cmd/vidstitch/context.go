package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vidstitch/internal/artifacts"
	"vidstitch/internal/catalog"
	"vidstitch/internal/config"
	"vidstitch/internal/logging"
	"vidstitch/internal/providers"
	"vidstitch/internal/providers/google"
	"vidstitch/internal/providers/openai"
	"vidstitch/internal/providers/runway"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonLogsFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonLogsFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonLogsFlag: jsonLogsFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		format := cfg.Logging.Format
		if format == "" {
			format = "json"
			if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
				format = "console"
			}
		}
		if c.jsonLogsFlag != nil && *c.jsonLogsFlag {
			format = "json"
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  level,
			Format: format,
			Writer: os.Stderr,
		})
	})
	return c.logger, c.loggerErr
}

// signalContext returns a context cancelled by SIGINT/SIGTERM so a run can
// stop between provider calls without leaving locks behind.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (c *commandContext) openArtifacts() (*artifacts.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return artifacts.Open(cfg.Paths.ArtifactsDir)
}

// buildGenerator wires the provider client named by the user with the
// configured credentials, logger, and artifact recorder.
func (c *commandContext) buildGenerator(provider catalog.Provider, recorder providers.Recorder) (providers.Generator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	switch provider {
	case catalog.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
		}, openai.WithLogger(logger), openai.WithRecorder(recorder)), nil
	case catalog.ProviderAzure:
		if strings.TrimSpace(cfg.Azure.Endpoint) == "" {
			return nil, fmt.Errorf("azure provider needs an endpoint; set [azure].endpoint or AZURE_OPENAI_ENDPOINT")
		}
		return openai.NewAzureClient(openai.AzureConfig{
			APIKey:     cfg.Azure.APIKey,
			Endpoint:   cfg.Azure.Endpoint,
			APIVersion: cfg.Azure.APIVersion,
		}, openai.WithLogger(logger), openai.WithRecorder(recorder)), nil
	case catalog.ProviderGoogle:
		return google.NewClient(google.Config{
			APIKey:  cfg.Google.APIKey,
			BaseURL: cfg.Google.BaseURL,
		}, google.WithLogger(logger), google.WithRecorder(recorder)), nil
	case catalog.ProviderRunway:
		return runway.NewClient(runway.Config{
			APIKey:  cfg.Runway.APIKey,
			BaseURL: cfg.Runway.BaseURL,
			Version: cfg.Runway.Version,
		}, runway.WithLogger(logger), runway.WithRecorder(recorder)), nil
	}
	return nil, fmt.Errorf("unsupported provider %q", provider)
}

// buildRunwayClient wires the RunwayML client for commands that use its
// endpoints beyond the Generator interface, such as Aleph editing.
func (c *commandContext) buildRunwayClient(recorder providers.Recorder) (*runway.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return runway.NewClient(runway.Config{
		APIKey:  cfg.Runway.APIKey,
		BaseURL: cfg.Runway.BaseURL,
		Version: cfg.Runway.Version,
	}, runway.WithLogger(logger), runway.WithRecorder(recorder)), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
