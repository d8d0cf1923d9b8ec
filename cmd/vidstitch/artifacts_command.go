package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"vidstitch/internal/providers"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect the ledger of generated videos",
	}
	artifactsCmd.AddCommand(newArtifactsListCommand(ctx))
	artifactsCmd.AddCommand(newArtifactsDownloadCommand(ctx))
	return artifactsCmd
}

func newArtifactsListCommand(ctx *commandContext) *cobra.Command {
	var providerFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded artifacts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openArtifacts()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), providerFilter)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No artifacts recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.TaskID,
					item.Provider,
					item.Model,
					string(item.Status),
					item.LocalPath,
					item.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Task", "Provider", "Model", "Status", "Local Path", "Created"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&providerFilter, "provider", "p", "", "Only show artifacts from one provider")
	return cmd
}

func newArtifactsDownloadCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download <task-id>",
		Short: "Re-download a generated video from its provider URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openArtifacts()
			if err != nil {
				return err
			}
			defer store.Close()

			artifact, err := store.GetByTaskID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if artifact.DownloadURL == "" {
				return fmt.Errorf("artifact %s has no provider download URL; %s outputs are only fetchable during the run",
					artifact.TaskID, artifact.Provider)
			}

			target := outPath
			if target == "" {
				target = artifact.LocalPath
			}
			if target == "" {
				return fmt.Errorf("no destination; pass --out")
			}

			// Gemini file URLs require the API key on the download too.
			var headers map[string]string
			if artifact.Provider == "google" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				headers = map[string]string{"x-goog-api-key": cfg.Google.APIKey}
			}

			runCtx, stop := signalContext()
			defer stop()
			client := &http.Client{Timeout: 5 * time.Minute}
			if err := providers.DownloadFile(runCtx, client, artifact.DownloadURL, target, headers); err != nil {
				return err
			}
			if err := store.RecordDownloaded(runCtx, artifact.TaskID, target); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination file (defaults to the recorded local path)")
	return cmd
}
