package providers

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vidstitch/internal/services"
)

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// EncodeImageDataURI reads an image file and returns it as a base64 data URI,
// the inline format the RunwayML and Gemini APIs accept for frame inputs.
func EncodeImageDataURI(path string) (string, error) {
	data, mimeType, err := readImage(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

// EncodeImageBase64 reads an image file and returns its raw base64 payload
// plus MIME type, for APIs that carry the two separately.
func EncodeImageBase64(path string) (string, string, error) {
	data, mimeType, err := readImage(path)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(data), mimeType, nil
}

var videoMIMETypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// EncodeVideoDataURI reads a video file and returns it as a base64 data URI,
// the inline format the RunwayML Aleph editing endpoint takes for its input
// clip.
func EncodeVideoDataURI(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "", "encode video", "empty video path", nil)
	}
	mimeType, ok := videoMIMETypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		mimeType = "video/mp4"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "", "encode video",
			fmt.Sprintf("read %s", path), err)
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

func readImage(path string) ([]byte, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, "", services.Wrap(services.ErrValidation, "", "encode image", "empty image path", nil)
	}
	mimeType, ok := imageMIMETypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		// Providers reject unknown types anyway; JPEG is the least likely to
		// be bounced when the extension lies.
		mimeType = "image/jpeg"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "", "encode image",
			fmt.Sprintf("read %s", path), err)
	}
	return data, mimeType, nil
}
