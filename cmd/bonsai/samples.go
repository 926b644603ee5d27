package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	bonsaiclient "github.com/mhkc/bonsai-libs/client/bonsai"
	"github.com/mhkc/bonsai-libs/schemas/bonsai"
)

func newSamplesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Manage samples in the Bonsai API",
	}
	cmd.AddCommand(newSamplesCreateCmd())
	return cmd
}

func newSamplesCreateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sample from a JSON payload file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading sample file: %w", err)
			}
			var sample bonsai.SampleInput
			if err := json.Unmarshal(data, &sample); err != nil {
				return fmt.Errorf("parsing sample file: %w", err)
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			core, err := newCoreClient(cfg, cfg.BonsaiURL, log)
			if err != nil {
				return err
			}

			resp, err := bonsaiclient.New(core).CreateSample(cmd.Context(), sample)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample created: internal=%s external=%s\n", resp.InternalSampleID, resp.ExternalSampleID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the sample JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
