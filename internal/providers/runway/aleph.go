package runway

import (
	"context"
	"fmt"

	"vidstitch/internal/logging"
	"vidstitch/internal/providers"
	"vidstitch/internal/services"
)

// AlephModel is the RunwayML video-to-video editing model. It reuses the
// image_to_video endpoint with the input clip inlined where a frame would
// normally go.
const AlephModel = "gen4_aleph"

// EditRequest describes one Aleph editing task: transform Video according
// to Prompt, optionally steered by reference images.
type EditRequest struct {
	Video           string
	Prompt          string
	ReferenceImages []string
	Width           int
	Height          int
	// DurationSeconds of zero keeps the input clip's duration.
	DurationSeconds int
	Seed            *int64
	OutputPath      string
}

// Edit runs one gen4_aleph task to completion and writes the edited video
// to req.OutputPath.
func (c *Client) Edit(ctx context.Context, req EditRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "runway", "edit",
			"RUNWAY_API_KEY not set; get a key from https://app.runwayml.com/settings/api-keys", nil)
	}
	if req.Video == "" {
		return "", services.Wrap(services.ErrValidation, "runway", "edit",
			"an input video is required", nil)
	}
	if req.Prompt == "" {
		return "", services.Wrap(services.ErrValidation, "runway", "edit",
			"an edit prompt is required", nil)
	}

	encodedVideo, err := providers.EncodeVideoDataURI(req.Video)
	if err != nil {
		return "", err
	}
	payload := taskRequest{
		Model:       AlephModel,
		PromptText:  req.Prompt,
		PromptImage: encodedVideo,
		Ratio:       fmt.Sprintf("%d:%d", req.Width, req.Height),
		Duration:    req.DurationSeconds,
		Seed:        req.Seed,
	}

	references := req.ReferenceImages
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
			return "", err
		}
		payload.ReferenceImages = append(payload.ReferenceImages, encodedRef)
	}

	return c.runTask(ctx, payload, req.Prompt, req.OutputPath)
}
