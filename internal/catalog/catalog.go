package catalog

import (
	"fmt"
	"strings"

	"vidstitch/internal/services"
)

// Provider identifies a video-generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderAzure  Provider = "azure"
	ProviderGoogle Provider = "google"
	ProviderRunway Provider = "runway"
)

// stitchModelPrefix marks the Veo model family, the only family that accepts
// a source frame for frame-chained generation. Covers both the native Google
// names (veo-3.1-*) and the RunwayML aliases (veo3, veo3.1, veo3.1_fast).
const stitchModelPrefix = "veo"

// DefaultGoogleVeoModel is the model used when the google provider is
// selected without an explicit model.
const DefaultGoogleVeoModel = "veo-3.1-fast-generate-preview"

// models is the static capability table. Providers without a live model-list
// endpoint are pinned here; validation never touches the network.
var models = map[Provider][]string{
	ProviderOpenAI: {
		"sora-2",
		"sora-2-pro",
	},
	ProviderAzure: {
		"sora-2",
		"sora-2-pro",
	},
	ProviderGoogle: {
		"veo-3.1-generate-preview",
		DefaultGoogleVeoModel,
		"veo-3.0-generate-001",
		"veo-3.0-fast-generate-001",
	},
	ProviderRunway: {
		"gen4_turbo",
		"gen4",
		"veo3.1_fast",
		"veo3.1",
		"veo3",
	},
}

var defaults = map[Provider]string{
	ProviderOpenAI: "sora-2",
	ProviderAzure:  "sora-2",
	ProviderGoogle: DefaultGoogleVeoModel,
	ProviderRunway: "gen4_turbo",
}

// clipPrefixes drive default output naming for stitched sequences.
var clipPrefixes = map[Provider]string{
	ProviderOpenAI: "sora",
	ProviderAzure:  "sora",
	ProviderGoogle: "veo3",
	ProviderRunway: "runway_veo",
}

// All returns the known providers in display order.
func All() []Provider {
	return []Provider{ProviderOpenAI, ProviderAzure, ProviderGoogle, ProviderRunway}
}

// Parse normalizes a provider name from user input.
func Parse(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := models[p]; !ok {
		return "", services.Wrap(services.ErrValidation, string(p), "parse provider",
			fmt.Sprintf("unsupported provider; use one of: %s", joinProviders(All())), nil)
	}
	return p, nil
}

// Models returns the supported model set for a provider.
func Models(p Provider) ([]string, error) {
	list, ok := models[p]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, string(p), "list models", "unsupported provider", nil)
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// DefaultModel returns the model used when none is requested.
func DefaultModel(p Provider) (string, error) {
	model, ok := defaults[p]
	if !ok {
		return "", services.Wrap(services.ErrValidation, string(p), "default model", "unsupported provider", nil)
	}
	return model, nil
}

// ClipPrefix returns the output filename prefix used for a provider's
// stitched clips ({prefix}_clip_{n}.mp4).
func ClipPrefix(p Provider) string {
	if prefix, ok := clipPrefixes[p]; ok {
		return prefix
	}
	return "clip"
}

// ValidateModelForProvider checks the requested model against the provider's
// capability table. When the model belongs to a different provider, the error
// names it as a remediation hint; otherwise the error lists the provider's
// full supported set. Fail-fast: callers run this before any network call.
func ValidateModelForProvider(model string, p Provider) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil
	}
	available, ok := models[p]
	if !ok {
		return services.Wrap(services.ErrValidation, string(p), "validate model", "unsupported provider", nil)
	}
	for _, m := range available {
		if m == model {
			return nil
		}
	}

	if matches := providersSupporting(model, p); len(matches) > 0 {
		return services.Wrap(services.ErrValidation, string(p), "validate model",
			fmt.Sprintf("model %q is not available for this provider; it is available for %s (use --provider %s)",
				model, joinProviders(matches), matches[0]), nil)
	}
	return services.Wrap(services.ErrValidation, string(p), "validate model",
		fmt.Sprintf("model %q is not recognized; available models: %s", model, strings.Join(available, ", ")), nil)
}

// ValidateStitchModel enforces the stitching pre-flight: a model is required
// and it must belong to the frame-chaining Veo family.
func ValidateStitchModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" || !strings.HasPrefix(model, stitchModelPrefix) {
		return services.Wrap(services.ErrValidation, "", "validate stitch model",
			"stitching requires a Veo model (veo-3.1* or veo3/veo3.1/veo3.1_fast)", nil)
	}
	return nil
}

func providersSupporting(model string, exclude Provider) []Provider {
	var matches []Provider
	for _, p := range All() {
		if p == exclude {
			continue
		}
		for _, m := range models[p] {
			if m == model {
				matches = append(matches, p)
				break
			}
		}
	}
	return matches
}

func joinProviders(list []Provider) string {
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
