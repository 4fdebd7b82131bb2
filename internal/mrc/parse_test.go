package mrc

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleHeader = `[COURSE HEADER]
VERSION = 2
UNITS = ENGLISH
DESCRIPTION = Seance debutant
FILE NAME = Seance_Debutant_created_by_Coach_Paul.mrc
MINUTES PERCENT
[END COURSE HEADER]
`

const thresholdMRC = `[COURSE HEADER]
VERSION = 2
UNITS = ENGLISH
DESCRIPTION = 2x8 threshold
FILE NAME = Threshold_2x8.mrc
MINUTES PERCENT
[END COURSE HEADER]
[COURSE DATA]
0.00	50	"Warm up"
10.00	50	"Warm up"
10.00	95	"Threshold 1"
18.00	95	"Threshold 1"
18.00	55	"Recovery"
22.00	55	"Recovery"
22.00	95	"Threshold 2"
30.00	95	"Threshold 2"
30.00	40	"Cool down"
40.00	40	"Cool down"
[END COURSE DATA]
`

const circuitMRC = `[COURSE HEADER]
VERSION = 2
DESCRIPTION = Circuit PPG
FILE NAME = PPG_Circuit.mrc
[END COURSE HEADER]
[COURSE DATA]
0.00 100 "ND, SQUAT 3 1 1 1"
1.00 20 "Recup"
1.25 100 "ND, PUSH UP 3 1 1 1"
2.00 20 "Recup"
2.25 100 "ND, SQUAT 3 1 1 1"
3.25 20 "Recup"
3.50 0
[END COURSE DATA]
`

// TestParseScenarioA verifies the reference cycling file: three merged blocks,
// the interval run spanning minutes 10-20, and a beginner level.
func TestParseScenarioA(t *testing.T) {
	text := sampleHeader + `[COURSE DATA]
0 50 "Warm up"
10 90 "Interval"
15 90 "Interval"
20 40 "Cooldown"
[END COURSE DATA]
`
	w, err := Parse(text, "upload.mrc")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if w.Category != CategoryCycling {
		t.Errorf("category = %q, want cycling", w.Category)
	}
	if w.Level != LevelBeginner {
		t.Errorf("level = %q, want beginner", w.Level)
	}
	if w.Exercises != nil {
		t.Errorf("exercises = %v, want nil for cycling", w.Exercises)
	}
	if len(w.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3: %+v", len(w.Blocks), w.Blocks)
	}

	want := []struct {
		role BlockRole
		pct  int
		secs int
	}{
		{RoleWarmup, 50, 600},
		{RoleInterval, 90, 600},
		{RoleCooldown, 40, 0},
	}
	for i, wb := range want {
		b := w.Blocks[i]
		if b.Role != wb.role || b.PercentOfReference != wb.pct || b.DurationSeconds != wb.secs {
			t.Errorf("block[%d] = %s@%d%% %ds, want %s@%d%% %ds",
				i, b.Role, b.PercentOfReference, b.DurationSeconds, wb.role, wb.pct, wb.secs)
		}
		if b.RepeatCount != 1 {
			t.Errorf("block[%d].RepeatCount = %d, want 1", i, b.RepeatCount)
		}
	}
	if w.TotalDurationMinutes != 20 {
		t.Errorf("total = %v, want 20", w.TotalDurationMinutes)
	}
	if w.AverageIntensityPercent != 70 {
		t.Errorf("avg intensity = %d, want 70", w.AverageIntensityPercent)
	}
	if w.Name != "Seance Debutant" {
		t.Errorf("name = %q, want %q", w.Name, "Seance Debutant")
	}
}

// TestParseStepFile verifies a typical step-encoded trainer file where every
// target is written twice (start and end of the step).
func TestParseStepFile(t *testing.T) {
	w, err := Parse(thresholdMRC, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(w.Blocks) != 5 {
		t.Fatalf("blocks = %d, want 5", len(w.Blocks))
	}
	roles := []BlockRole{RoleWarmup, RoleInterval, RoleCooldown, RoleInterval, RoleCooldown}
	for i, r := range roles {
		if w.Blocks[i].Role != r {
			t.Errorf("block[%d].Role = %s, want %s", i, w.Blocks[i].Role, r)
		}
	}
	if w.AverageIntensityPercent != 66 {
		t.Errorf("avg intensity = %d, want 66", w.AverageIntensityPercent)
	}

	s := w.Summary()
	if s.EstimatedTSS != 33 {
		t.Errorf("tss = %d, want 33", s.EstimatedTSS)
	}
	if s.IntensityRange != "40-95% FTP" {
		t.Errorf("range = %q, want %q", s.IntensityRange, "40-95% FTP")
	}
	if w.Name != "Threshold 2x8" {
		t.Errorf("name = %q", w.Name)
	}
	if w.Level != LevelIntermediate {
		t.Errorf("level = %q, want intermediate", w.Level)
	}
}

// TestParseDurationConservation verifies that block durations add up to the
// total duration within one second per block.
func TestParseDurationConservation(t *testing.T) {
	text := sampleHeader + `[COURSE DATA]
0 45
7.33 45
7.33 88 "Sweet spot"
19.87 88 "Sweet spot"
19.87 52
24.1 52
24.1 88 "Sweet spot"
36.64 88 "Sweet spot"
36.64 40
45.5 40
[END COURSE DATA]
`
	w, err := Parse(text, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var sum int
	for _, b := range w.Blocks {
		sum += b.DurationSeconds
	}
	diff := float64(sum) - w.TotalDurationMinutes*60
	if diff < 0 {
		diff = -diff
	}
	if diff > float64(len(w.Blocks)) {
		t.Errorf("sum of blocks = %ds, total = %.1fs (diff %.1f > %d)", sum, w.TotalDurationMinutes*60, diff, len(w.Blocks))
	}
}

// TestParseCircuit verifies the PPG path: exercises are grouped by name and
// no cycling blocks are produced.
func TestParseCircuit(t *testing.T) {
	w, err := Parse(circuitMRC, "")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if w.Category != CategoryPPG {
		t.Fatalf("category = %q, want ppg", w.Category)
	}
	if w.Blocks != nil {
		t.Errorf("blocks = %v, want nil for ppg", w.Blocks)
	}
	if len(w.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(w.Exercises))
	}
	if w.Exercises[0].Name != "Squat" || w.Exercises[0].SetCount != 2 {
		t.Errorf("exercise[0] = %s x%d, want Squat x2", w.Exercises[0].Name, w.Exercises[0].SetCount)
	}
	if w.Exercises[1].Name != "Push Up" || w.Exercises[1].SetCount != 1 {
		t.Errorf("exercise[1] = %s x%d, want Push Up x1", w.Exercises[1].Name, w.Exercises[1].SetCount)
	}
	if s := w.Summary(); s.EstimatedTSS != 0 || s.IntensityRange != "60-70% FTP" {
		t.Errorf("summary = %+v, want zero TSS and default range", s)
	}
}

// TestParseErrors verifies that section-level problems are fatal and typed,
// and that no partial workout is returned.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{
			name: "no header",
			text: "[COURSE DATA]\n0 50\n10 50\n[END COURSE DATA]\n",
			want: ErrMissingHeaderSection,
		},
		{
			name: "header not closed",
			text: "[COURSE HEADER]\nVERSION = 2\n[COURSE DATA]\n0 50\n[END COURSE DATA]\n",
			want: ErrMissingHeaderSection,
		},
		{
			name: "data not closed",
			text: sampleHeader + "[COURSE DATA]\n0 50\n10 50\n",
			want: ErrMissingDataSection,
		},
		{
			name: "only comments",
			text: sampleHeader + "[COURSE DATA]\n; exported by tool\nno numbers here\n[END COURSE DATA]\n",
			want: ErrEmptyDataset,
		},
		{
			name: "empty data section",
			text: sampleHeader + "[COURSE DATA]\n[END COURSE DATA]\n",
			want: ErrEmptyDataset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Parse(tt.text, "x.mrc")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !IsFormatError(err) {
				t.Errorf("IsFormatError(%v) = false", err)
			}
			if w != nil {
				t.Errorf("workout = %+v, want nil", w)
			}
		})
	}
}

// TestParseDeterministic verifies that parsing the same text twice yields
// identical workouts.
func TestParseDeterministic(t *testing.T) {
	for _, text := range []string{thresholdMRC, circuitMRC} {
		a, err := Parse(text, "a.mrc")
		if err != nil {
			t.Fatal(err)
		}
		b, err := Parse(text, "a.mrc")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("parses differ:\n%+v\n%+v", a, b)
		}
	}
}

// TestParseReader verifies the io.Reader entry point and upload-name fallback
// when the header has no FILE NAME.
func TestParseReader(t *testing.T) {
	text := "[COURSE HEADER]\nVERSION = 2\n[END COURSE HEADER]\n[COURSE DATA]\n0 60\n30 60\n[END COURSE DATA]\n"
	w, err := ParseReader(strings.NewReader(text), "Endurance_Zwift.mrc")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if w.Name != "Endurance" {
		t.Errorf("name = %q, want Endurance", w.Name)
	}
	if len(w.Blocks) != 1 || w.Blocks[0].DurationSeconds != 1800 {
		t.Errorf("blocks = %+v, want one 1800s block", w.Blocks)
	}
}
