package google

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
	defaultHTTPTimeout  = 120 * time.Second
	defaultPollInterval = 10 * time.Second
)

// Config captures the runtime settings required to talk to the Gemini API.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Client generates videos through the Gemini API's Veo long-running
// prediction endpoint.
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
		c.logger = logging.NewComponentLogger(logger, "google")
	}
}

// WithPollInterval overrides the operation polling cadence.
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

// NewClient constructs a Gemini Veo client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		},
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logging.NewNop(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	return client
}

// Provider identifies this client in the capability table.
func (c *Client) Provider() catalog.Provider {
	return catalog.ProviderGoogle
}

type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictInstance struct {
	Prompt string       `json:"prompt"`
	Image  *inlineImage `json:"image,omitempty"`
}

type predictParameters struct {
	AspectRatio      string `json:"aspectRatio,omitempty"`
	DurationSeconds  int    `json:"durationSeconds,omitempty"`
	NumberOfVideos   int    `json:"numberOfVideos,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type operationStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type operationResponse struct {
	Name     string           `json:"name"`
	Done     bool             `json:"done"`
	Error    *operationStatus `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// Generate runs one Veo prediction to completion and writes the video to
// req.OutputPath.
func (c *Client) Generate(ctx context.Context, req providers.Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "google", "generate",
			"GOOGLE_API_KEY not set; get a key from https://aistudio.google.com/apikey", nil)
	}

	payload, err := c.buildPayload(req)
	if err != nil {
		return "", err
	}

	operationName, err := c.startOperation(ctx, req.Model, payload)
	if err != nil {
		return "", err
	}
	c.logger.Info("operation started",
		logging.String("operation", operationName),
		logging.String("model", req.Model),
	)

	videoURL, err := c.pollOperation(ctx, operationName)
	if err != nil {
		return "", err
	}

	if c.recorder != nil {
		if recErr := c.recorder.RecordGenerated(ctx, string(catalog.ProviderGoogle), operationName, req.Model, req.Prompt, videoURL); recErr != nil {
			c.logger.Warn("artifact record failed", logging.Error(recErr))
		}
	}

	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}
	if err := providers.DownloadFile(ctx, c.httpClient, videoURL, req.OutputPath, headers); err != nil {
		return "", err
	}

	if c.recorder != nil {
		if recErr := c.recorder.RecordDownloaded(ctx, operationName, req.OutputPath); recErr != nil {
			c.logger.Warn("artifact record failed", logging.Error(recErr))
		}
	}

	c.logger.Info("video downloaded",
		logging.String("operation", operationName),
		logging.String("output", req.OutputPath),
	)
	return req.OutputPath, nil
}

func (c *Client) buildPayload(req providers.Request) (predictRequest, error) {
	instance := predictInstance{Prompt: req.Prompt}

	// Veo accepts a single conditioning image: the continuity frame when
	// stitching, otherwise the first reference image.
	imagePath := req.SourceFrame
	if imagePath == "" && len(req.ReferenceImages) > 0 {
		imagePath = req.ReferenceImages[0]
	}
	if imagePath != "" {
		encoded, mimeType, err := providers.EncodeImageBase64(imagePath)
		if err != nil {
			return predictRequest{}, err
		}
		instance.Image = &inlineImage{BytesBase64Encoded: encoded, MimeType: mimeType}
	}

	return predictRequest{
		Instances: []predictInstance{instance},
		Parameters: predictParameters{
			AspectRatio:     aspectRatio(req.Width, req.Height),
			DurationSeconds: req.DurationSeconds,
			NumberOfVideos:  1,
		},
	}, nil
}

func aspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if height > width {
		return "9:16"
	}
	return "16:9"
}

func (c *Client) startOperation(ctx context.Context, model string, payload predictRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "google", "start operation", "encode body", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning", c.cfg.BaseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "google", "start operation", "build request", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrTransient, "google", "start operation", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "google", "start operation", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", classifyStatus("start operation", resp.StatusCode, string(body))
	}

	var op operationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "google", "start operation", "decode response", err)
	}
	if op.Name == "" {
		return "", services.Wrap(services.ErrExternalTool, "google", "start operation", "response missing operation name", nil)
	}
	return op.Name, nil
}

func (c *Client) pollOperation(ctx context.Context, operationName string) (string, error) {
	for {
		op, err := c.fetchOperation(ctx, operationName)
		if err != nil {
			if services.Classify(err) != services.KindTransient {
				return "", err
			}
			c.logger.Debug("poll failed, continuing", logging.Error(err))
		} else if op.Done {
			if op.Error != nil {
				return "", classifyOperationError(operationName, op.Error)
			}
			if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
				return "", services.Wrap(services.ErrExternalTool, "google", "poll operation",
					fmt.Sprintf("operation %s completed without video output", operationName), nil)
			}
			return op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI, nil
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) fetchOperation(ctx context.Context, operationName string) (operationResponse, error) {
	var op operationResponse
	endpoint := c.cfg.BaseURL + "/v1beta/" + strings.TrimPrefix(operationName, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return op, services.Wrap(services.ErrValidation, "google", "poll operation", "build request", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return op, ctx.Err()
		}
		return op, services.Wrap(services.ErrTransient, "google", "poll operation", "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return op, services.Wrap(services.ErrTransient, "google", "poll operation", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return op, classifyStatus("poll operation", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &op); err != nil {
		return op, services.Wrap(services.ErrTransient, "google", "poll operation", "decode response", err)
	}
	return op, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func classifyStatus(operation string, status int, body string) error {
	trimmed := strings.TrimSpace(body)
	switch {
	case status == http.StatusTooManyRequests && providers.LooksLikeCreditFailure(trimmed):
		return services.Wrap(services.ErrCreditExhausted, "google", operation,
			"quota exhausted; check your plan at https://aistudio.google.com", nil)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "google", operation,
			"authentication failed; check GOOGLE_API_KEY", nil)
	case status == http.StatusBadRequest:
		return services.Wrap(services.ErrValidation, "google", operation,
			fmt.Sprintf("http 400: %s", snippet(trimmed)), nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "google", operation,
			fmt.Sprintf("http 404: %s", snippet(trimmed)), nil)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "google", operation,
			fmt.Sprintf("http %d", status), nil)
	default:
		return services.Wrap(services.ErrExternalTool, "google", operation,
			fmt.Sprintf("http %d: %s", status, snippet(trimmed)), nil)
	}
}

func classifyOperationError(operationName string, status *operationStatus) error {
	message := fmt.Sprintf("operation %s failed: %s", operationName, status.Message)
	if providers.LooksLikeCreditFailure(status.Message) {
		return services.Wrap(services.ErrCreditExhausted, "google", "poll operation", message, nil)
	}
	// 8 = RESOURCE_EXHAUSTED, 14 = UNAVAILABLE in the google.rpc.Code enum.
	switch status.Code {
	case 8:
		return services.Wrap(services.ErrCreditExhausted, "google", "poll operation", message, nil)
	case 14:
		return services.Wrap(services.ErrTransient, "google", "poll operation", message, nil)
	}
	return services.Wrap(services.ErrExternalTool, "google", "poll operation", message, nil)
}

func snippet(body string) string {
	const limit = 500
	if len(body) > limit {
		return body[:limit]
	}
	return body
}
