package runway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vidstitch/internal/catalog"
	"vidstitch/internal/logging"
	"vidstitch/internal/providers"
	"vidstitch/internal/services"
)

const (
	defaultHTTPTimeout  = 60 * time.Second
	defaultPollInterval = 5 * time.Second
	maxReferenceImages  = 3
)

// Config captures the runtime settings required to talk to RunwayML.
type Config struct {
	APIKey         string
	BaseURL        string
	Version        string
	TimeoutSeconds int
}

// Client drives the RunwayML image_to_video API: create a task, poll it to a
// terminal state, download the produced video.
type Client struct {
	cfg          Config
	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	recorder     providers.Recorder
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "runway")
	}
}

// WithPollInterval overrides the task polling cadence (useful for tests).
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithRecorder attaches an artifact recorder.
func WithRecorder(recorder providers.Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// NewClient constructs a RunwayML client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Version: strings.TrimSpace(cfg.Version),
		},
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logging.NewNop(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.dev.runwayml.com/v1"
	}
	if client.cfg.Version == "" {
		client.cfg.Version = "2024-11-06"
	}
	return client
}

// Provider identifies this client in the capability table.
func (c *Client) Provider() catalog.Provider {
	return catalog.ProviderRunway
}

type taskRequest struct {
	Model           string   `json:"model"`
	PromptText      string   `json:"promptText"`
	PromptImage     string   `json:"promptImage"`
	Ratio           string   `json:"ratio"`
	Duration        int      `json:"duration,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
}

type taskResponse struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Output  []string `json:"output"`
	Failure string   `json:"failure"`
}

// Generate runs one image_to_video task to completion and writes the video
// to req.OutputPath.
func (c *Client) Generate(ctx context.Context, req providers.Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "runway", "generate",
			"RUNWAY_API_KEY not set; get a key from https://app.runwayml.com/settings/api-keys", nil)
	}

	payload, err := c.buildPayload(req)
	if err != nil {
		return "", err
	}
	return c.runTask(ctx, payload, req.Prompt, req.OutputPath)
}

// runTask drives one task through creation, polling and download.
func (c *Client) runTask(ctx context.Context, payload taskRequest, prompt, outputPath string) (string, error) {
	task, err := c.createTask(ctx, payload)
	if err != nil {
		return "", err
	}
	c.logger.Info("task created",
		logging.String("task_id", task.ID),
		logging.String("model", payload.Model),
	)

	completed, err := c.pollTask(ctx, task.ID)
	if err != nil {
		return "", err
	}
	if len(completed.Output) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "runway", "poll task",
			fmt.Sprintf("task %s succeeded without output", task.ID), nil)
	}
	videoURL := completed.Output[0]

	if c.recorder != nil {
		if recErr := c.recorder.RecordGenerated(ctx, string(catalog.ProviderRunway), task.ID, payload.Model, prompt, videoURL); recErr != nil {
			c.logger.Warn("artifact record failed", logging.Error(recErr))
		}
	}

	if err := providers.DownloadFile(ctx, c.httpClient, videoURL, outputPath, nil); err != nil {
		return "", err
	}

	if c.recorder != nil {
		if recErr := c.recorder.RecordDownloaded(ctx, task.ID, outputPath); recErr != nil {
			c.logger.Warn("artifact record failed", logging.Error(recErr))
		}
	}

	c.logger.Info("video downloaded",
		logging.String("task_id", task.ID),
		logging.String("output", outputPath),
	)
	return outputPath, nil
}

func (c *Client) buildPayload(req providers.Request) (taskRequest, error) {
	payload := taskRequest{
		Model:      req.Model,
		PromptText: req.Prompt,
		Ratio:      fmt.Sprintf("%d:%d", req.Width, req.Height),
		Duration:   req.DurationSeconds,
		Seed:       req.Seed,
	}

	// The API requires a promptImage: the continuity frame when stitching,
	// otherwise the first reference image.
	promptImage := req.SourceFrame
	references := req.ReferenceImages
	if promptImage == "" {
		if len(references) == 0 {
			return taskRequest{}, services.Wrap(services.ErrValidation, "runway", "generate",
				"the RunwayML API requires a source frame or at least one reference image", nil)
		}
		promptImage = references[0]
		references = references[1:]
	}
	encoded, err := providers.EncodeImageDataURI(promptImage)
	if err != nil {
		return taskRequest{}, err
	}
	payload.PromptImage = encoded

	if len(references) > maxReferenceImages {
		c.logger.Warn("truncating reference images",
			logging.Int("supplied", len(references)),
			logging.Int("max", maxReferenceImages),
		)
		references = references[:maxReferenceImages]
	}
	for _, ref := range references {
		encodedRef, err := providers.EncodeImageDataURI(ref)
		if err != nil {
			return taskRequest{}, err
		}
		payload.ReferenceImages = append(payload.ReferenceImages, encodedRef)
	}
	return payload, nil
}

func (c *Client) createTask(ctx context.Context, payload taskRequest) (taskResponse, error) {
	var task taskResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return task, services.Wrap(services.ErrValidation, "runway", "create task", "encode body", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/image_to_video", bytes.NewReader(encoded))
	if err != nil {
		return task, services.Wrap(services.ErrValidation, "runway", "create task", "build request", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return task, ctx.Err()
		}
		return task, services.Wrap(services.ErrTransient, "runway", "create task", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return task, services.Wrap(services.ErrTransient, "runway", "create task", "read body", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return task, classifyStatus("create task", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &task); err != nil {
		return task, services.Wrap(services.ErrExternalTool, "runway", "create task", "decode response", err)
	}
	if task.ID == "" {
		return task, services.Wrap(services.ErrExternalTool, "runway", "create task", "response missing task id", nil)
	}
	return task, nil
}

func (c *Client) pollTask(ctx context.Context, taskID string) (taskResponse, error) {
	for {
		task, err := c.fetchTask(ctx, taskID)
		if err != nil {
			if services.Classify(err) != services.KindTransient {
				return taskResponse{}, err
			}
			// Polling outlives transient hiccups; the task keeps running
			// server-side either way.
			c.logger.Debug("poll failed, continuing", logging.Error(err))
		} else {
			switch task.Status {
			case "SUCCEEDED":
				return task, nil
			case "FAILED":
				return taskResponse{}, classifyFailure(taskID, task.Failure)
			}
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return taskResponse{}, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) fetchTask(ctx context.Context, taskID string) (taskResponse, error) {
	var task taskResponse
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return task, services.Wrap(services.ErrValidation, "runway", "poll task", "build request", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return task, ctx.Err()
		}
		return task, services.Wrap(services.ErrTransient, "runway", "poll task", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return task, services.Wrap(services.ErrTransient, "runway", "poll task", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return task, classifyStatus("poll task", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &task); err != nil {
		return task, services.Wrap(services.ErrTransient, "runway", "poll task", "decode response", err)
	}
	return task, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Runway-Version", c.cfg.Version)
}

func classifyStatus(operation string, status int, body string) error {
	trimmed := strings.TrimSpace(body)
	switch {
	case status == http.StatusPaymentRequired,
		status == http.StatusBadRequest && providers.LooksLikeCreditFailure(trimmed):
		return services.Wrap(services.ErrCreditExhausted, "runway", operation,
			"add credits at https://app.runwayml.com/settings/billing or switch provider", nil)
	case status == http.StatusBadRequest, status == http.StatusRequestEntityTooLarge, status == http.StatusUnprocessableEntity:
		return services.Wrap(services.ErrValidation, "runway", operation,
			fmt.Sprintf("http %d: %s", status, snippet(trimmed)), nil)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "runway", operation,
			"authentication failed; check RUNWAY_API_KEY", nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "runway", operation,
			fmt.Sprintf("http 404: %s", snippet(trimmed)), nil)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "runway", operation,
			fmt.Sprintf("http %d", status), nil)
	default:
		return services.Wrap(services.ErrExternalTool, "runway", operation,
			fmt.Sprintf("http %d: %s", status, snippet(trimmed)), nil)
	}
}

func classifyFailure(taskID, failure string) error {
	if providers.LooksLikeCreditFailure(failure) {
		return services.Wrap(services.ErrCreditExhausted, "runway", "poll task",
			fmt.Sprintf("task %s failed: %s", taskID, snippet(failure)), nil)
	}
	return services.Wrap(services.ErrExternalTool, "runway", "poll task",
		fmt.Sprintf("task %s failed: %s", taskID, snippet(failure)), nil)
}

func snippet(body string) string {
	const limit = 500
	if len(body) > limit {
		return body[:limit]
	}
	return body
}
