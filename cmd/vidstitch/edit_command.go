package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vidstitch/internal/backoff"
	"vidstitch/internal/logging"
	"vidstitch/internal/providers/runway"
	"vidstitch/internal/services"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var videoPath string
	var outPath string
	var images []string
	var width, height, duration int
	var seed int64

	cmd := &cobra.Command{
		Use:   "edit <prompt>",
		Short: "Edit an existing video with RunwayML Aleph",
		Long: `Transform an existing video according to a text prompt using RunwayML's
gen4_aleph model. The output keeps the source clip's duration unless
--duration is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
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

			client, err := ctx.buildRunwayClient(store)
			if err != nil {
				return err
			}

			if width == 0 {
				width = cfg.Defaults.Width
			}
			if height == 0 {
				height = cfg.Defaults.Height
			}
			if outPath == "" {
				outPath = defaultEditOutputPath(videoPath)
			}

			req := runway.EditRequest{
				Video:           videoPath,
				Prompt:          args[0],
				ReferenceImages: images,
				Width:           width,
				Height:          height,
				OutputPath:      outPath,
			}
			if cmd.Flags().Changed("duration") {
				req.DurationSeconds = duration
			}
			if cmd.Flags().Changed("seed") {
				s := seed
				req.Seed = &s
			}

			runCtx, stop := signalContext()
			defer stop()
			runCtx = services.WithRunID(runCtx, uuid.NewString())
			runCtx = services.WithProvider(runCtx, "runway")
			runLogger := logging.WithContext(runCtx, logger)

			err = backoff.Retry(runCtx, runLogger, backoffPolicy(cfg), backoff.Sleep, func(ctx context.Context) error {
				_, editErr := client.Edit(ctx, req)
				return editErr
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoPath, "video", "", "Video file to edit (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file path (defaults next to the input)")
	cmd.Flags().StringArrayVarP(&images, "image", "i", nil, "Reference image steering the edit (repeatable)")
	cmd.Flags().IntVar(&width, "width", 0, "Output width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Output height in pixels")
	cmd.Flags().IntVar(&duration, "duration", 0, "Output duration in seconds (omit to keep the input's)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Generation seed")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

// defaultEditOutputPath names the edited clip after its source, beside it.
func defaultEditOutputPath(videoPath string) string {
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(videoPath), stem+"_aleph_edited.mp4")
}
