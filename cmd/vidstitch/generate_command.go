package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vidstitch/internal/backoff"
	"vidstitch/internal/catalog"
	"vidstitch/internal/config"
	"vidstitch/internal/logging"
	"vidstitch/internal/services"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	flags := videoFlags{}
	var outPath string
	var images []string
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate a single video clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			provider, err := flags.resolve(cfg)
			if err != nil {
				return err
			}
			model := flags.model
			if model == "" {
				if model, err = catalog.DefaultModel(provider); err != nil {
					return err
				}
			}
			if err := catalog.ValidateModelForProvider(model, provider); err != nil {
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

			generator, err := ctx.buildGenerator(provider, store)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = filepath.Join(cfg.Paths.OutputDir,
					fmt.Sprintf("%s_%s.mp4", catalog.ClipPrefix(provider), uuid.NewString()[:8]))
			}

			runCtx, stop := signalContext()
			defer stop()
			runCtx = services.WithRunID(runCtx, uuid.NewString())
			runCtx = services.WithProvider(runCtx, string(provider))
			runLogger := logging.WithContext(runCtx, logger)

			genReq := buildProviderRequest(args[0], images, flags, model, outPath, cmd.Flags().Changed("seed"), seed)
			err = backoff.Retry(runCtx, runLogger, backoffPolicy(cfg), backoff.Sleep, func(ctx context.Context) error {
				_, genErr := generator.Generate(ctx, genReq)
				return genErr
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.provider, "provider", "p", "google", "Video provider (openai, azure, google, runway)")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model to use (defaults per provider)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file path")
	cmd.Flags().StringArrayVarP(&images, "image", "i", nil, "Reference image (repeatable)")
	cmd.Flags().IntVar(&flags.width, "width", 0, "Video width in pixels")
	cmd.Flags().IntVar(&flags.height, "height", 0, "Video height in pixels")
	cmd.Flags().IntVar(&flags.duration, "duration", 0, "Clip duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Generation seed")
	return cmd
}

func backoffPolicy(cfg *config.Config) backoff.Policy {
	return backoff.Policy{
		Base:   time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second,
		Cap:    time.Duration(cfg.Retry.MaxDelaySeconds) * time.Second,
		Jitter: cfg.Retry.JitterFraction,
	}
}
