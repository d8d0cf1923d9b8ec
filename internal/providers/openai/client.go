package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
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

// Config captures the runtime settings required to talk to the OpenAI
// Videos API.
type Config struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// AzureConfig captures the runtime settings for an Azure OpenAI deployment.
type AzureConfig struct {
	APIKey         string
	Endpoint       string
	APIVersion     string
	TimeoutSeconds int
}

// Client generates videos through the Sora Videos API, against either
// api.openai.com or an Azure OpenAI deployment.
type Client struct {
	provider     catalog.Provider
	apiKey       string
	baseURL      string
	apiVersion   string
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
		c.logger = logging.NewComponentLogger(logger, string(c.provider))
	}
}

// WithPollInterval overrides the video polling cadence.
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

// NewClient constructs a client for api.openai.com.
func NewClient(cfg Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return newClient(catalog.ProviderOpenAI, strings.TrimSpace(cfg.APIKey), baseURL, "", cfg.TimeoutSeconds, opts)
}

// NewAzureClient constructs a client for an Azure OpenAI deployment.
func NewAzureClient(cfg AzureConfig, opts ...Option) *Client {
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = "preview"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/") + "/openai/v1"
	return newClient(catalog.ProviderAzure, strings.TrimSpace(cfg.APIKey), baseURL, apiVersion, cfg.TimeoutSeconds, opts)
}

func newClient(provider catalog.Provider, apiKey, baseURL, apiVersion string, timeoutSeconds int, opts []Option) *Client {
	timeout := defaultHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	client := &Client{
		provider:     provider,
		apiKey:       apiKey,
		baseURL:      baseURL,
		apiVersion:   apiVersion,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logging.NewNop(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Provider identifies this client in the capability table.
func (c *Client) Provider() catalog.Provider {
	return c.provider
}

type videoResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate runs one Sora video job to completion and writes the video to
// req.OutputPath.
func (c *Client) Generate(ctx context.Context, req providers.Request) (string, error) {
	if c.apiKey == "" {
		return "", services.Wrap(services.ErrConfiguration, string(c.provider), "generate",
			c.missingKeyHint(), nil)
	}

	video, err := c.createVideo(ctx, req)
	if err != nil {
		return "", err
	}
	c.logger.Info("video job created",
		logging.String("video_id", video.ID),
		logging.String("model", req.Model),
	)

	if err := c.pollVideo(ctx, video.ID); err != nil {
		return "", err
	}

	if c.recorder != nil {
		if recErr := c.recorder.RecordGenerated(ctx, string(c.provider), video.ID, req.Model, req.Prompt, ""); recErr != nil {
			c.logger.Warn("artifact record failed", logging.Error(recErr))
		}
	}

	if err := c.downloadContent(ctx, video.ID, req.OutputPath); err != nil {
		return "", err
	}

	if c.recorder != nil {
		if recErr := c.recorder.RecordDownloaded(ctx, video.ID, req.OutputPath); recErr != nil {
			c.logger.Warn("artifact record failed", logging.Error(recErr))
		}
	}

	c.logger.Info("video downloaded",
		logging.String("video_id", video.ID),
		logging.String("output", req.OutputPath),
	)
	return req.OutputPath, nil
}

func (c *Client) missingKeyHint() string {
	if c.provider == catalog.ProviderAzure {
		return "AZURE_OPENAI_API_KEY not set"
	}
	return "OPENAI_API_KEY not set; get a key from https://platform.openai.com/api-keys"
}

func (c *Client) createVideo(ctx context.Context, req providers.Request) (videoResponse, error) {
	// Sora conditions on a single image. When one is present the API
	// requires a multipart upload; plain JSON otherwise.
	imagePath := req.SourceFrame
	if imagePath == "" && len(req.ReferenceImages) > 0 {
		imagePath = req.ReferenceImages[0]
	}

	var body io.Reader
	contentType := "application/json"
	if imagePath == "" {
		encoded, err := json.Marshal(map[string]string{
			"model":   req.Model,
			"prompt":  req.Prompt,
			"size":    fmt.Sprintf("%dx%d", req.Width, req.Height),
			"seconds": strconv.Itoa(req.DurationSeconds),
		})
		if err != nil {
			return videoResponse{}, services.Wrap(services.ErrValidation, string(c.provider), "create video", "encode body", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		multipartBody, multipartType, err := c.buildMultipart(req, imagePath)
		if err != nil {
			return videoResponse{}, err
		}
		body = multipartBody
		contentType = multipartType
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/videos"), body)
	if err != nil {
		return videoResponse{}, services.Wrap(services.ErrValidation, string(c.provider), "create video", "build request", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", contentType)

	return c.doVideoRequest(ctx, httpReq, "create video")
}

func (c *Client) buildMultipart(req providers.Request, imagePath string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"model":   req.Model,
		"prompt":  req.Prompt,
		"size":    fmt.Sprintf("%dx%d", req.Width, req.Height),
		"seconds": strconv.Itoa(req.DurationSeconds),
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", services.Wrap(services.ErrValidation, string(c.provider), "create video", "write form field", err)
		}
	}
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, string(c.provider), "create video",
			fmt.Sprintf("open reference image %s", imagePath), err)
	}
	defer file.Close()
	part, err := writer.CreateFormFile("input_reference", filepath.Base(imagePath))
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, string(c.provider), "create video", "write form file", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", services.Wrap(services.ErrValidation, string(c.provider), "create video", "copy reference image", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", services.Wrap(services.ErrValidation, string(c.provider), "create video", "finalize form", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) pollVideo(ctx context.Context, videoID string) error {
	for {
		video, err := c.fetchVideo(ctx, videoID)
		if err != nil {
			if services.Classify(err) != services.KindTransient {
				return err
			}
			c.logger.Debug("poll failed, continuing", logging.Error(err))
		} else {
			switch video.Status {
			case "completed":
				return nil
			case "failed":
				return classifyVideoFailure(c.provider, video)
			}
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) fetchVideo(ctx context.Context, videoID string) (videoResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/videos/"+videoID), nil)
	if err != nil {
		return videoResponse{}, services.Wrap(services.ErrValidation, string(c.provider), "poll video", "build request", err)
	}
	c.setHeaders(httpReq)
	return c.doVideoRequest(ctx, httpReq, "poll video")
}

func (c *Client) doVideoRequest(ctx context.Context, httpReq *http.Request, operation string) (videoResponse, error) {
	var video videoResponse
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return video, ctx.Err()
		}
		return video, services.Wrap(services.ErrTransient, string(c.provider), operation, "http error", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return video, services.Wrap(services.ErrTransient, string(c.provider), operation, "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return video, classifyStatus(c.provider, operation, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &video); err != nil {
		return video, services.Wrap(services.ErrExternalTool, string(c.provider), operation, "decode response", err)
	}
	if video.ID == "" {
		return video, services.Wrap(services.ErrExternalTool, string(c.provider), operation, "response missing video id", nil)
	}
	return video, nil
}

func (c *Client) downloadContent(ctx context.Context, videoID, outPath string) error {
	headers := map[string]string{}
	c.authHeaders(headers)
	return providers.DownloadFile(ctx, c.httpClient, c.endpoint("/videos/"+videoID+"/content"), outPath, headers)
}

func (c *Client) endpoint(path string) string {
	full := c.baseURL + path
	if c.apiVersion != "" {
		full += "?api-version=" + url.QueryEscape(c.apiVersion)
	}
	return full
}

func (c *Client) setHeaders(req *http.Request) {
	headers := map[string]string{"Content-Type": "application/json"}
	c.authHeaders(headers)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

func (c *Client) authHeaders(headers map[string]string) {
	if c.provider == catalog.ProviderAzure {
		headers["api-key"] = c.apiKey
		return
	}
	headers["Authorization"] = "Bearer " + c.apiKey
}

func classifyStatus(provider catalog.Provider, operation string, status int, body string) error {
	trimmed := strings.TrimSpace(body)
	switch {
	case providers.LooksLikeCreditFailure(trimmed):
		return services.Wrap(services.ErrCreditExhausted, string(provider), operation,
			"quota exhausted; check billing at https://platform.openai.com/settings/organization/billing", nil)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, string(provider), operation,
			"authentication failed; check the API key", nil)
	case status == http.StatusBadRequest, status == http.StatusRequestEntityTooLarge, status == http.StatusUnprocessableEntity:
		return services.Wrap(services.ErrValidation, string(provider), operation,
			fmt.Sprintf("http %d: %s", status, snippet(trimmed)), nil)
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, string(provider), operation,
			fmt.Sprintf("http 404: %s", snippet(trimmed)), nil)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, string(provider), operation,
			fmt.Sprintf("http %d", status), nil)
	default:
		return services.Wrap(services.ErrExternalTool, string(provider), operation,
			fmt.Sprintf("http %d: %s", status, snippet(trimmed)), nil)
	}
}

func classifyVideoFailure(provider catalog.Provider, video videoResponse) error {
	message := fmt.Sprintf("video %s failed", video.ID)
	if video.Error != nil {
		message = fmt.Sprintf("video %s failed: %s: %s", video.ID, video.Error.Code, video.Error.Message)
		if video.Error.Code == "insufficient_quota" || providers.LooksLikeCreditFailure(video.Error.Message) {
			return services.Wrap(services.ErrCreditExhausted, string(provider), "poll video", message, nil)
		}
	}
	return services.Wrap(services.ErrExternalTool, string(provider), "poll video", message, nil)
}

func snippet(body string) string {
	const limit = 500
	if len(body) > limit {
		return body[:limit]
	}
	return body
}
