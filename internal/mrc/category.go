package mrc

import "strings"

// ppgKeywords mark a label as a bodyweight exercise. Matching is plain
// substring containment against the uppercased label.
var ppgKeywords = []string{
	"SQUAT",
	"LUNGE",
	"FENTE",
	"PLANK",
	"GAINAGE",
	"BURPEE",
	"PUSH-UP",
	"PUSH UP",
	"POMPE",
	"CRUNCH",
	"CORE HOLD",
	"MOUNTAIN CLIMBER",
	"JUMPING JACK",
	"ND,", // circuit marker emitted by the PPG export tool
}

// Classify returns CategoryPPG when any label names a bodyweight exercise.
func Classify(samples []Sample) Category {
	for _, s := range samples {
		if isPPGLabel(s.Label) {
			return CategoryPPG
		}
	}
	return CategoryCycling
}

func isPPGLabel(label string) bool {
	if label == "" {
		return false
	}
	upper := strings.ToUpper(label)
	for _, kw := range ppgKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
