package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidstitch/internal/catalog"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "models",
		Short:       "List supported providers and models",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0)
			for _, provider := range catalog.All() {
				models, err := catalog.Models(provider)
				if err != nil {
					return err
				}
				defaultModel, err := catalog.DefaultModel(provider)
				if err != nil {
					return err
				}
				for _, model := range models {
					stitchable := strings.HasPrefix(model, "veo")
					rows = append(rows, []string{
						string(provider),
						model,
						yesNo(model == defaultModel),
						yesNo(stitchable),
					})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Provider", "Model", "Default", "Stitch"},
				rows,
			))
			return nil
		},
	}
}
