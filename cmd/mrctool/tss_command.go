package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTSSCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "tss FILE...",
		Short: "Print estimated TSS and intensity range",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type line struct {
				File           string `json:"file"`
				EstimatedTSS   int    `json:"estimated_tss"`
				IntensityRange string `json:"intensity_range"`
			}
			lines := make([]line, 0, len(args))
			for _, path := range args {
				w, err := loadWorkout(path)
				if err != nil {
					return err
				}
				s := w.Summary()
				lines = append(lines, line{File: path, EstimatedTSS: s.EstimatedTSS, IntensityRange: s.IntensityRange})
			}

			if jsonOut {
				return writeJSON(cmd, lines)
			}
			for _, l := range lines {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tTSS %d\t%s\n", l.File, l.EstimatedTSS, l.IntensityRange)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
