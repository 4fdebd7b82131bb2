package mrc

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultRest = "00:15"
	tempoMarker = "3 1 1 1"
	tempoNote   = "Tempo: 3-1-1-1"
)

// exerciseNameRe matches: ND, MOUNTAIN CLIMBER 3 1 1 1
// The four trailing integers are positional set/rep/rest fields; they only
// bound the name here and are not decoded.
var exerciseNameRe = regexp.MustCompile(`^(?:ND\s*,\s*)?(\p{Lu}[\p{Lu}'-]*(?:\s+\p{Lu}[\p{Lu}'-]*)*)(?:\s+\d+\s+\d+\s+\d+\s+\d+)?\s*$`)

// AggregateExercises groups PPG samples into exercises in first-seen order.
// Each sample except the last is one set lasting until the next sample.
func AggregateExercises(samples []Sample) []Exercise {
	var exercises []Exercise
	index := make(map[string]int)

	for i := 0; i+1 < len(samples); i++ {
		point, next := samples[i], samples[i+1]
		if containsAny(strings.ToLower(point.Label), recoveryKeywords) {
			continue
		}
		name, ok := exerciseName(point.Label)
		if !ok {
			continue
		}

		if at, seen := index[name]; seen {
			exercises[at].SetCount++
			continue
		}

		ex := Exercise{
			Name:           name,
			PerSetDuration: formatMMSS(next.OffsetMinutes - point.OffsetMinutes),
			SetCount:       1,
			RestDuration:   defaultRest,
		}
		if strings.Contains(point.Label, tempoMarker) {
			note := tempoNote
			ex.Note = &note
		}
		index[name] = len(exercises)
		exercises = append(exercises, ex)
	}
	return exercises
}

// exerciseName extracts and normalizes the exercise name from a label.
func exerciseName(label string) (string, bool) {
	m := exerciseNameRe.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", false
	}
	name := NormalizeName(m[1])
	return name, name != ""
}

// NormalizeName trims, collapses whitespace and title-cases each word.
func NormalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.Und).String(s)
}

// formatMMSS renders a duration in minutes as MM:SS.
func formatMMSS(minutes float64) string {
	secs := int(math.Round(minutes * 60))
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
