package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vidstitch/internal/services"
	"vidstitch/internal/stitch"
)

func newStitchCommand(ctx *commandContext) *cobra.Command {
	flags := videoFlags{}
	var promptsFile string
	var outputDir string
	var outputPaths []string
	var images []string
	var imageGroups []string
	var resume bool
	var delaySeconds int
	var seed int64

	cmd := &cobra.Command{
		Use:   "stitch <prompt> [prompt...]",
		Short: "Generate a continuous multi-clip sequence",
		Long: `Generate a sequence of clips where each clip starts from the final frame
of the previous one. Completed clips are kept on disk; rerun with --resume
after a failure or credit top-up to continue where the run stopped.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			provider, err := flags.resolve(cfg)
			if err != nil {
				return err
			}
			prompts, err := collectPrompts(args, promptsFile)
			if err != nil {
				return err
			}
			if len(prompts) == 0 {
				return fmt.Errorf("no prompts given; pass them as arguments or via --prompts-file")
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openArtifacts()
			if err != nil {
				return err
			}
			defer store.Close()

			generator, err := ctx.buildGenerator(provider, store)
			if err != nil {
				return err
			}
			extractor, err := buildExtractor(cfg, logger)
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = cfg.Paths.OutputDir
			}
			lock, err := acquireRunLock(outputDir, outputPaths)
			if err != nil {
				return err
			}
			defer lock.Release()

			delay := time.Duration(cfg.Stitch.DelayBetweenClipsSeconds) * time.Second
			if cmd.Flags().Changed("delay") {
				delay = time.Duration(delaySeconds) * time.Second
			}

			clips := make([]stitch.ClipSpec, len(prompts))
			for i, prompt := range prompts {
				clips[i] = stitch.ClipSpec{Prompt: prompt}
				if cmd.Flags().Changed("seed") {
					s := seed
					clips[i].Seed = &s
				}
			}
			clipImages, err := stitch.DistributeImages(images, parseImageGroups(imageGroups), clips)
			if err != nil {
				return err
			}
			for i := range clips {
				clips[i].ReferenceImages = clipImages[i]
			}

			runCtx, stop := signalContext()
			defer stop()
			runCtx = services.WithRunID(runCtx, uuid.NewString())
			runCtx = services.WithProvider(runCtx, string(provider))

			orchestrator := stitch.New(generator, extractor,
				stitch.WithBackoffPolicy(backoffPolicy(cfg)),
				stitch.WithLogger(logger),
			)
			outcome, err := orchestrator.RunSequence(runCtx, stitch.SequenceRequest{
				Clips:           clips,
				Model:           flags.model,
				OutputDir:       outputDir,
				OutputPaths:     outputPaths,
				Width:           flags.width,
				Height:          flags.height,
				DurationSeconds: flags.duration,
				Delay:           delay,
				Resume:          resume,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d clip(s), skipped %d already on disk\n", outcome.Generated, outcome.Skipped)
			for _, clip := range outcome.Clips {
				fmt.Fprintf(out, "  %s\n", clip)
			}
			if outcome.CreditExhausted {
				fmt.Fprintf(out, "Stopped early: provider credits exhausted after %d of %d clip(s).\n",
					len(outcome.Clips), len(clips))
				fmt.Fprintln(out, "Top up credits and rerun the same command with --resume to continue.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "google", "Video provider (openai, azure, google, runway)")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model to use (stitching needs a Veo model)")
	cmd.Flags().StringVar(&promptsFile, "prompts-file", "", "File with one prompt per line")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "Directory for generated clips")
	cmd.Flags().StringArrayVar(&outputPaths, "output", nil, "Explicit output path per clip (repeatable, must match prompt count)")
	cmd.Flags().StringArrayVarP(&images, "image", "i", nil, "Reference image shared across clips by filename keyword (repeatable)")
	cmd.Flags().StringArrayVar(&imageGroups, "image-group", nil, "Comma-separated images for one clip, in clip order (repeatable, must match prompt count)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip clips whose output already exists")
	cmd.Flags().IntVar(&delaySeconds, "delay", 0, "Seconds to pause between clips")
	cmd.Flags().IntVar(&flags.width, "width", 0, "Video width in pixels")
	cmd.Flags().IntVar(&flags.height, "height", 0, "Video height in pixels")
	cmd.Flags().IntVar(&flags.duration, "duration", 0, "Clip duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Generation seed applied to every clip")
	return cmd
}
