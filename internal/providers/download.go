package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"vidstitch/internal/services"
)

// DownloadFile streams url into outPath, creating parent directories as
// needed. Extra headers support authenticated content endpoints. A zero-byte
// download is treated as a failure and removed so resume scans never trust it.
func DownloadFile(ctx context.Context, client *http.Client, url, outPath string, headers map[string]string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "download video", "build request", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "", "download video", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrExternalTool
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			marker = services.ErrTransient
		}
		return services.Wrap(marker, "", "download video",
			fmt.Sprintf("http %d from %s", resp.StatusCode, url), nil)
	}

	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrExternalTool, "", "download video", "create output directory", err)
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "", "download video", "create output file", err)
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		_ = os.Remove(outPath)
		return services.Wrap(services.ErrTransient, "", "download video", "stream body", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(outPath)
		return services.Wrap(services.ErrExternalTool, "", "download video", "flush output", err)
	}
	if written == 0 {
		_ = os.Remove(outPath)
		return services.Wrap(services.ErrTransient, "", "download video", "empty response body", nil)
	}
	return nil
}
