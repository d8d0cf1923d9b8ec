package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"vidstitch/internal/providers"
	"vidstitch/internal/services"
)

const testModel = "veo-3.1-fast-generate-preview"

func newTestClient(serverURL string, opts ...Option) *Client {
	base := []Option{WithPollInterval(time.Millisecond)}
	return NewClient(Config{APIKey: "goog-test-key", BaseURL: serverURL}, append(base, opts...)...)
}

func TestGenerateSucceedsAfterPolling(t *testing.T) {
	dir := t.TempDir()

	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1beta/models/"+testModel+":predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "goog-test-key" {
			t.Errorf("api key header = %q", got)
		}
		var body predictRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Instances) != 1 || body.Instances[0].Prompt != "a red fox" {
			t.Errorf("instances = %+v", body.Instances)
		}
		if body.Parameters.AspectRatio != "16:9" {
			t.Errorf("aspectRatio = %q", body.Parameters.AspectRatio)
		}
		if body.Parameters.DurationSeconds != 8 {
			t.Errorf("durationSeconds = %d", body.Parameters.DurationSeconds)
		}
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1"})
	})
	mux.HandleFunc("GET /v1beta/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-1",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{
						{"video": map[string]any{"uri": "http://" + r.Host + "/video.mp4"}},
					},
				},
			},
		})
	})
	mux.HandleFunc("GET /video.mp4", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "goog-test-key" {
			t.Errorf("download api key header = %q", got)
		}
		w.Write([]byte("video-bytes"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)
	out := filepath.Join(dir, "clip.mp4")
	path, err := client.Generate(context.Background(), providers.Request{
		Prompt:          "a red fox",
		Width:           1280,
		Height:          720,
		DurationSeconds: 8,
		Model:           testModel,
		OutputPath:      out,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if path != out {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("output = %q", data)
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Generate(context.Background(), providers.Request{Model: testModel})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestGenerateEncodesSourceFrame(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(frame, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var gotInstance predictInstance
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1beta/models/"+testModel+":predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		var body predictRequest
		json.NewDecoder(r.Body).Decode(&body)
		gotInstance = body.Instances[0]
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-2"})
	})
	mux.HandleFunc("GET /v1beta/operations/op-2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-2",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{
						{"video": map[string]any{"uri": "http://" + r.Host + "/video.mp4"}},
					},
				},
			},
		})
	})
	mux.HandleFunc("GET /video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("v"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Generate(context.Background(), providers.Request{
		Prompt:          "fox",
		SourceFrame:     frame,
		Width:           1280,
		Height:          720,
		DurationSeconds: 5,
		Model:           testModel,
		OutputPath:      filepath.Join(dir, "clip.mp4"),
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotInstance.Image == nil {
		t.Fatal("image not attached to instance")
	}
	if gotInstance.Image.MimeType != "image/png" {
		t.Errorf("mimeType = %q", gotInstance.Image.MimeType)
	}
}

func TestQuotaExhaustionClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"You exceeded your current quota."}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), providers.Request{
		Prompt: "fox", Width: 1280, Height: 720, DurationSeconds: 5,
		Model: testModel, OutputPath: filepath.Join(t.TempDir(), "clip.mp4"),
	})
	if !errors.Is(err, services.ErrCreditExhausted) {
		t.Fatalf("err = %v, want credit exhaustion", err)
	}
}

func TestOperationErrorResourceExhausted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1beta/models/"+testModel+":predictLongRunning", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-3"})
	})
	mux.HandleFunc("GET /v1beta/operations/op-3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name":  "operations/op-3",
			"done":  true,
			"error": map[string]any{"code": 8, "message": "Resource has been exhausted"},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), providers.Request{
		Prompt: "fox", Width: 1280, Height: 720, DurationSeconds: 5,
		Model: testModel, OutputPath: filepath.Join(t.TempDir(), "clip.mp4"),
	})
	if !errors.Is(err, services.ErrCreditExhausted) {
		t.Fatalf("err = %v, want credit exhaustion", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Generate(context.Background(), providers.Request{
		Prompt: "fox", Width: 1280, Height: 720, DurationSeconds: 5,
		Model: testModel, OutputPath: filepath.Join(t.TempDir(), "clip.mp4"),
	})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestAspectRatio(t *testing.T) {
	if got := aspectRatio(1280, 720); got != "16:9" {
		t.Errorf("landscape = %q", got)
	}
	if got := aspectRatio(720, 1280); got != "9:16" {
		t.Errorf("portrait = %q", got)
	}
	if got := aspectRatio(0, 0); got != "" {
		t.Errorf("zero = %q", got)
	}
}
