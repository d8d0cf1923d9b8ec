package config

const (
	defaultOutputDir    = "~/vidstitch/output"
	defaultLogDir       = "~/.local/share/vidstitch/logs"
	defaultArtifactsDir = "~/.local/share/vidstitch/artifacts"

	defaultWidth           = 1280
	defaultHeight          = 720
	defaultDurationSeconds = 8

	defaultRetryBaseDelaySeconds = 30
	defaultRetryMaxDelaySeconds  = 300
	defaultRetryJitterFraction   = 0.2

	defaultDelayBetweenClipsSeconds = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultAzureAPIVer   = "preview"
	defaultGoogleBaseURL = "https://generativelanguage.googleapis.com"
	defaultRunwayBaseURL = "https://api.dev.runwayml.com/v1"
	defaultRunwayVersion = "2024-11-06"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			ArtifactsDir: defaultArtifactsDir,
		},
		Defaults: Defaults{
			Width:           defaultWidth,
			Height:          defaultHeight,
			DurationSeconds: defaultDurationSeconds,
		},
		Retry: Retry{
			BaseDelaySeconds: defaultRetryBaseDelaySeconds,
			MaxDelaySeconds:  defaultRetryMaxDelaySeconds,
			JitterFraction:   defaultRetryJitterFraction,
		},
		Stitch: Stitch{
			DelayBetweenClipsSeconds: defaultDelayBetweenClipsSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		OpenAI: OpenAI{BaseURL: defaultOpenAIBaseURL},
		Azure:  Azure{APIVersion: defaultAzureAPIVer},
		Google: Google{BaseURL: defaultGoogleBaseURL},
		Runway: Runway{BaseURL: defaultRunwayBaseURL, Version: defaultRunwayVersion},
	}
}
