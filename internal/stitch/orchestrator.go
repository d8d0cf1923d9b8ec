package stitch

import (
	"context"
	"log/slog"
	"time"

	"vidstitch/internal/backoff"
	"vidstitch/internal/catalog"
	"vidstitch/internal/frames"
	"vidstitch/internal/logging"
	"vidstitch/internal/providers"
	"vidstitch/internal/services"
)

// ClipSpec describes one clip in a sequence.
type ClipSpec struct {
	Prompt          string
	ReferenceImages []string
	Seed            *int64
}

// SequenceRequest describes a full stitching run.
type SequenceRequest struct {
	Clips []ClipSpec
	// Model overrides the provider default. Stitching needs a Veo-family
	// model because it is the only line that accepts a still frame as the
	// starting image of a new clip.
	Model string
	// OutputDir receives the default {prefix}_clip_{n}.mp4 files.
	OutputDir string
	// OutputPaths, when set, names each clip's destination verbatim and
	// must match len(Clips).
	OutputPaths     []string
	Width           int
	Height          int
	DurationSeconds int
	// Delay is the pause between consecutive generations, applied only
	// when another clip is still to come.
	Delay time.Duration
	// Resume skips clips whose output already exists with nonzero size.
	Resume bool
}

// Outcome reports what a run accomplished. A run stopped by credit
// exhaustion returns the clips produced so far with a nil error, so callers
// can resume after topping up instead of regenerating paid-for clips.
type Outcome struct {
	// Clips holds every clip now on disk, in order, including skipped ones.
	Clips           []string
	Generated       int
	Skipped         int
	CreditExhausted bool
}

// Orchestrator generates multi-clip sequences strictly one clip at a time,
// threading each clip's final frame into the next generation.
type Orchestrator struct {
	generator providers.Generator
	extractor frames.Extractor
	policy    backoff.Policy
	sleep     backoff.Sleeper
	logger    *slog.Logger
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithBackoffPolicy overrides the retry backoff policy.
func WithBackoffPolicy(policy backoff.Policy) Option {
	return func(o *Orchestrator) {
		o.policy = policy
	}
}

// WithSleeper overrides how the orchestrator waits, for tests.
func WithSleeper(sleep backoff.Sleeper) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logging.NewComponentLogger(logger, "stitch")
	}
}

// New constructs an orchestrator around a clip generator and a frame
// extractor.
func New(generator providers.Generator, extractor frames.Extractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: generator,
		extractor: extractor,
		policy:    backoff.Default(),
		sleep:     backoff.Sleep,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunSequence generates every clip in the request. Transient failures are
// retried with backoff; credit exhaustion stops the run and returns the
// partial outcome with a nil error; fatal errors and cancellation
// propagate. No provider call is made until the model checks pass.
func (o *Orchestrator) RunSequence(ctx context.Context, req SequenceRequest) (Outcome, error) {
	var outcome Outcome

	provider := o.generator.Provider()
	model := req.Model
	if model == "" {
		var err error
		if model, err = catalog.DefaultModel(provider); err != nil {
			return outcome, err
		}
	}
	if err := o.validate(req, provider, model); err != nil {
		return outcome, err
	}

	expected := ExpectedOutputPaths(provider, req.OutputDir, req.OutputPaths, len(req.Clips))

	lastFrame := ""
	startIndex := 0
	if req.Resume {
		state := ComputeResumeState(ctx, expected, o.extractor, o.logger)
		startIndex = state.StartIndex
		lastFrame = state.LastFrame
		outcome.Clips = append(outcome.Clips, state.Completed...)
		outcome.Skipped = len(state.Completed)
		if startIndex > 0 {
			o.logger.Info("resuming sequence",
				logging.Int("completed", startIndex),
				logging.Int("remaining", len(req.Clips)-startIndex),
			)
		}
	}

	for i := startIndex; i < len(req.Clips); i++ {
		clip := req.Clips[i]
		clipCtx := services.WithClipIndex(ctx, i+1)
		clipLogger := logging.WithContext(clipCtx, o.logger)

		genReq := providers.Request{
			Prompt:          clip.Prompt,
			ReferenceImages: clip.ReferenceImages,
			Width:           req.Width,
			Height:          req.Height,
			DurationSeconds: req.DurationSeconds,
			Seed:            clip.Seed,
			Model:           model,
			OutputPath:      expected[i],
		}
		if i > 0 {
			genReq.SourceFrame = lastFrame
		}

		clipLogger.Info("generating clip",
			logging.String(logging.FieldEventType, "clip_start"),
			logging.String("model", model),
			logging.String("output", expected[i]),
		)
		err := backoff.Retry(clipCtx, clipLogger, o.policy, o.sleep, func(ctx context.Context) error {
			_, genErr := o.generator.Generate(ctx, genReq)
			return genErr
		})
		if err != nil {
			if services.Classify(err) == services.KindCreditExhausted {
				clipLogger.Warn("credits exhausted, stopping with partial sequence",
					logging.Int("generated", outcome.Generated),
					logging.Error(err),
				)
				outcome.CreditExhausted = true
				return outcome, nil
			}
			return outcome, err
		}
		outcome.Clips = append(outcome.Clips, expected[i])
		outcome.Generated++
		clipLogger.Info("clip ready",
			logging.String(logging.FieldEventType, "clip_complete"),
			logging.String("output", expected[i]),
		)

		if i < len(req.Clips)-1 {
			lastFrame = o.extractContinuityFrame(clipCtx, clipLogger, expected[i])
			if req.Delay > 0 {
				clipLogger.Debug("pausing between clips", logging.Duration("delay", req.Delay))
				if err := o.sleep(clipCtx, req.Delay); err != nil {
					return outcome, err
				}
			}
		}
	}
	return outcome, nil
}

func (o *Orchestrator) validate(req SequenceRequest, provider catalog.Provider, model string) error {
	if len(req.Clips) == 0 {
		return services.Wrap(services.ErrValidation, string(provider), "stitch",
			"at least one clip prompt is required", nil)
	}
	if len(req.OutputPaths) > 0 && len(req.OutputPaths) != len(req.Clips) {
		return services.Wrap(services.ErrValidation, string(provider), "stitch",
			"output paths must match the number of clips", nil)
	}
	if err := catalog.ValidateStitchModel(model); err != nil {
		return err
	}
	return catalog.ValidateModelForProvider(model, provider)
}

// extractContinuityFrame pulls the final frame of a finished clip for the
// next generation. Extraction failure degrades to generating without a
// frame rather than aborting a run that has already paid for clips.
func (o *Orchestrator) extractContinuityFrame(ctx context.Context, logger *slog.Logger, clipPath string) string {
	frame, err := o.extractor.ExtractLastFrame(ctx, clipPath)
	if err != nil {
		logger.Warn("could not extract continuity frame, next clip starts without one",
			logging.String("clip", clipPath),
			logging.Error(err),
		)
		return ""
	}
	return frame
}
