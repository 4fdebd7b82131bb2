package main

import (
	"fmt"
	"os"

	"github.com/claude/trainerlab/internal/mrc"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mrctool",
		Short:         "Inspect and convert .mrc home-trainer files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newTSSCommand())
	rootCmd.AddCommand(newExportCommand())
	return rootCmd
}

// loadWorkout reads and parses one file from disk.
func loadWorkout(path string) (*mrc.Workout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w, err := mrc.ParseReader(f, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return w, nil
}
