package main

import (
	"fmt"
	"strconv"

	"github.com/claude/trainerlab/internal/mrc"
	"github.com/spf13/cobra"
)

func newParseCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the decoded workout",
		Long:  "Print the decoded workout as a table on a terminal, or as JSON when piped or with --json.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkout(args[0])
			if err != nil {
				return err
			}
			if jsonOut || !isTerminalWriter(cmd.OutOrStdout()) {
				return writeJSON(cmd, map[string]any{"workout": w, "summary": w.Summary()})
			}
			printWorkout(cmd, w)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON even on a terminal")
	return cmd
}

func printWorkout(cmd *cobra.Command, w *mrc.Workout) {
	out := cmd.OutOrStdout()
	s := w.Summary()
	fmt.Fprintf(out, "%s (%s, %s)\n", s.Name, s.Category, s.Level)
	fmt.Fprintf(out, "Duration: %.0f min   Avg: %d%%   TSS: %d   Range: %s\n\n",
		s.TotalDurationMinutes, s.AverageIntensityPercent, s.EstimatedTSS, s.IntensityRange)

	if w.Category == mrc.CategoryPPG {
		rows := make([][]string, 0, len(w.Exercises))
		for i, e := range w.Exercises {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), e.Name, e.PerSetDuration, strconv.Itoa(e.SetCount), e.RestDuration, deref(e.Note),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Exercise", "Per set", "Sets", "Rest", "Note"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
		return
	}

	rows := make([][]string, 0, len(w.Blocks))
	for i, b := range w.Blocks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), string(b.Role), formatSeconds(b.DurationSeconds), strconv.Itoa(b.PercentOfReference) + "%", deref(b.Note),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Role", "Duration", "FTP", "Note"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func formatSeconds(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
