// Package mrc decodes .MRC home-trainer workout files into structured
// workouts. Everything here is a pure function of its input and is safe to
// call from many goroutines at once.
package mrc

import (
	"fmt"
	"io"
)

// Parse decodes a complete MRC document. fileName is the uploaded name and is
// only used for naming when the header carries no FILE NAME.
func Parse(text, fileName string) (*Workout, error) {
	header, err := ExtractHeader(text)
	if err != nil {
		return nil, err
	}
	samples, err := ExtractSamples(text)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyDataset
	}

	source := header.FileName
	if source == "" {
		source = fileName
	}

	w := &Workout{
		Header:                  header,
		Samples:                 samples,
		Category:                Classify(samples),
		TotalDurationMinutes:    TotalDurationMinutes(samples),
		AverageIntensityPercent: AverageIntensity(samples),
		Name:                    DeriveName(source, header.Description),
		Level:                   DeriveLevel(header.Description, source),
	}
	switch w.Category {
	case CategoryPPG:
		w.Exercises = AggregateExercises(samples)
	default:
		w.Blocks = BuildBlocks(samples)
	}
	return w, nil
}

// ParseReader reads r to the end and parses it.
func ParseReader(r io.Reader, fileName string) (*Workout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	return Parse(string(data), fileName)
}
