package runway

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

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake-png-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, serverURL string, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithPollInterval(time.Millisecond)}
	return NewClient(Config{
		APIKey:  "rw-test-key",
		BaseURL: serverURL,
		Version: "2024-11-06",
	}, append(base, opts...)...)
}

func TestGenerateSucceedsAfterPolling(t *testing.T) {
	dir := t.TempDir()
	frame := writeImage(t, dir, "frame.png")

	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /image_to_video", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Runway-Version"); got != "2024-11-06" {
			t.Errorf("version header = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer rw-test-key" {
			t.Errorf("authorization header = %q", got)
		}
		var body taskRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Model != "gen4_turbo" {
			t.Errorf("model = %q", body.Model)
		}
		if body.Ratio != "1280:720" {
			t.Errorf("ratio = %q", body.Ratio)
		}
		if body.PromptImage == "" {
			t.Error("promptImage missing")
		}
		json.NewEncoder(w).Encode(taskResponse{ID: "task-1", Status: "PENDING"})
	})
	mux.HandleFunc("GET /tasks/task-1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(taskResponse{ID: "task-1", Status: "RUNNING"})
			return
		}
		json.NewEncoder(w).Encode(taskResponse{ID: "task-1", Status: "SUCCEEDED", Output: []string{serverVideoURL(r)}})
	})
	mux.HandleFunc("GET /video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video-bytes"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	out := filepath.Join(dir, "clip.mp4")
	path, err := client.Generate(context.Background(), providers.Request{
		Prompt:          "a red fox",
		SourceFrame:     frame,
		Width:           1280,
		Height:          720,
		DurationSeconds: 8,
		Model:           "gen4_turbo",
		OutputPath:      out,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if path != out {
		t.Errorf("path = %q, want %q", path, out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("output = %q", data)
	}
	if polls.Load() < 3 {
		t.Errorf("polls = %d, want >= 3", polls.Load())
	}
}

func serverVideoURL(r *http.Request) string {
	return "http://" + r.Host + "/video.mp4"
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Generate(context.Background(), providers.Request{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestGenerateRequiresPromptImage(t *testing.T) {
	client := NewClient(Config{APIKey: "rw-test-key"})
	_, err := client.Generate(context.Background(), providers.Request{
		Prompt: "no images at all",
		Model:  "gen4_turbo",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestGenerateUsesFirstReferenceWithoutSourceFrame(t *testing.T) {
	dir := t.TempDir()
	ref := writeImage(t, dir, "ref.jpg")

	var gotPromptImage string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /image_to_video", func(w http.ResponseWriter, r *http.Request) {
		var body taskRequest
		json.NewDecoder(r.Body).Decode(&body)
		gotPromptImage = body.PromptImage
		json.NewEncoder(w).Encode(taskResponse{ID: "task-2", Status: "PENDING"})
	})
	mux.HandleFunc("GET /tasks/task-2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{ID: "task-2", Status: "SUCCEEDED", Output: []string{serverVideoURL(r)}})
	})
	mux.HandleFunc("GET /video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("v"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), providers.Request{
		Prompt:          "fox",
		ReferenceImages: []string{ref},
		Width:           1280,
		Height:          720,
		DurationSeconds: 5,
		Model:           "gen4_turbo",
		OutputPath:      filepath.Join(dir, "clip.mp4"),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotPromptImage == "" {
		t.Fatal("promptImage not populated from reference image")
	}
}

func TestCreditExhaustionOnCreate(t *testing.T) {
	dir := t.TempDir()
	frame := writeImage(t, dir, "frame.png")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"You do not have enough credits to run this task."}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), providers.Request{
		Prompt:      "fox",
		SourceFrame: frame,
		Width:       1280, Height: 720, DurationSeconds: 5,
		Model:      "gen4_turbo",
		OutputPath: filepath.Join(dir, "clip.mp4"),
	})
	if !errors.Is(err, services.ErrCreditExhausted) {
		t.Fatalf("err = %v, want credit exhaustion", err)
	}
}

func TestCreateTaskClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, "bad key", services.ErrConfiguration},
		{"payload too large", http.StatusRequestEntityTooLarge, "too big", services.ErrValidation},
		{"bad request", http.StatusBadRequest, "invalid ratio", services.ErrValidation},
		{"rate limited", http.StatusTooManyRequests, "slow down", services.ErrTransient},
		{"unavailable", http.StatusServiceUnavailable, "maintenance", services.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			frame := writeImage(t, dir, "frame.png")
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Generate(context.Background(), providers.Request{
				Prompt:      "fox",
				SourceFrame: frame,
				Width:       1280, Height: 720, DurationSeconds: 5,
				Model:      "gen4_turbo",
				OutputPath: filepath.Join(dir, "clip.mp4"),
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFailedTaskWithCreditMessage(t *testing.T) {
	dir := t.TempDir()
	frame := writeImage(t, dir, "frame.png")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /image_to_video", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{ID: "task-3", Status: "PENDING"})
	})
	mux.HandleFunc("GET /tasks/task-3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{ID: "task-3", Status: "FAILED", Failure: "Not enough credits remaining"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Generate(context.Background(), providers.Request{
		Prompt:      "fox",
		SourceFrame: frame,
		Width:       1280, Height: 720, DurationSeconds: 5,
		Model:      "gen4_turbo",
		OutputPath: filepath.Join(dir, "clip.mp4"),
	})
	if !errors.Is(err, services.ErrCreditExhausted) {
		t.Fatalf("err = %v, want credit exhaustion", err)
	}
}

func TestPollingHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	frame := writeImage(t, dir, "frame.png")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /image_to_video", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{ID: "task-4", Status: "PENDING"})
	})
	mux.HandleFunc("GET /tasks/task-4", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{ID: "task-4", Status: "RUNNING"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := newTestClient(t, server.URL, WithPollInterval(10*time.Millisecond))
	_, err := client.Generate(ctx, providers.Request{
		Prompt:      "fox",
		SourceFrame: frame,
		Width:       1280, Height: 720, DurationSeconds: 5,
		Model:      "gen4_turbo",
		OutputPath: filepath.Join(dir, "clip.mp4"),
	})
	if services.Classify(err) != services.KindCancelled {
		t.Fatalf("err = %v, want cancellation", err)
	}
}

type recorderSpy struct {
	generated  int
	downloaded int
	taskID     string
	localPath  string
}

func (r *recorderSpy) RecordGenerated(ctx context.Context, provider, taskID, model, prompt, downloadURL string) error {
	r.generated++
	r.taskID = taskID
	return nil
}

func (r *recorderSpy) RecordDownloaded(ctx context.Context, taskID, localPath string) error {
	r.downloaded++
	r.localPath = localPath
	return nil
}

func TestGenerateRecordsArtifacts(t *testing.T) {
	dir := t.TempDir()
	frame := writeImage(t, dir, "frame.png")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /image_to_video", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{ID: "task-5", Status: "PENDING"})
	})
	mux.HandleFunc("GET /tasks/task-5", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(taskResponse{ID: "task-5", Status: "SUCCEEDED", Output: []string{serverVideoURL(r)}})
	})
	mux.HandleFunc("GET /video.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("v"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	spy := &recorderSpy{}
	client := newTestClient(t, server.URL, WithRecorder(spy))
	out := filepath.Join(dir, "clip.mp4")
	if _, err := client.Generate(context.Background(), providers.Request{
		Prompt:      "fox",
		SourceFrame: frame,
		Width:       1280, Height: 720, DurationSeconds: 5,
		Model:      "gen4_turbo",
		OutputPath: out,
	}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if spy.generated != 1 || spy.downloaded != 1 {
		t.Errorf("recorder calls = %d/%d, want 1/1", spy.generated, spy.downloaded)
	}
	if spy.taskID != "task-5" {
		t.Errorf("taskID = %q", spy.taskID)
	}
	if spy.localPath != out {
		t.Errorf("localPath = %q", spy.localPath)
	}
}
