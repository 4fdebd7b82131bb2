package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/trainerlab/internal/export"
	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write samples and blocks as Parquet",
		Long:  "Write FILE's samples to OUT and its blocks (or exercises) to OUT with a .blocks suffix before the extension.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkout(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".parquet"
			}

			samples, err := export.SamplesParquet(w)
			if err != nil {
				return fmt.Errorf("encoding samples: %w", err)
			}
			blocks, err := export.BlocksParquet(w)
			if err != nil {
				return fmt.Errorf("encoding blocks: %w", err)
			}

			blocksPath := blocksFileName(out)
			if err := os.WriteFile(out, samples, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(blocksPath, blocks, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d samples) and %s\n", out, len(w.Samples), blocksPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Samples output path (default FILE with .parquet extension)")
	return cmd
}

// blocksFileName turns x.parquet into x.blocks.parquet.
func blocksFileName(samplesPath string) string {
	ext := filepath.Ext(samplesPath)
	return strings.TrimSuffix(samplesPath, ext) + ".blocks" + ext
}
