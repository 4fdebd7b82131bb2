package mrc

import (
	"path/filepath"
	"regexp"
	"strings"
)

const untitledWorkout = "Untitled workout"

var (
	beginnerKeywords = []string{"debutant", "débutant", "beginner", "facile", "easy", "initiation", "decouverte", "découverte"}
	expertKeywords   = []string{"expert", "avance", "avancé", "advanced", "elite", "élite", "difficile", "hard"}

	// vendorSignatureRe strips export-tool signatures, e.g. "Zwift", "TrainerRoad".
	vendorSignatureRe = regexp.MustCompile(`(?i)\b(?:trainer\s?road|zwift|ergdb|wko\d*|golden\s?cheetah|perfpro)\b`)

	// createdByRe strips a trailing "created by Coach Name" credit.
	createdByRe = regexp.MustCompile(`(?i)[\s\-–(]*created\s+by\b.*$`)
)

// DeriveLevel scans description and file name for difficulty keywords.
// Beginner keywords win over expert ones.
func DeriveLevel(description, fileName string) Level {
	text := strings.ToLower(description + " " + fileName)
	switch {
	case containsAny(text, beginnerKeywords):
		return LevelBeginner
	case containsAny(text, expertKeywords):
		return LevelExpert
	default:
		return LevelIntermediate
	}
}

// DeriveName builds a display name from the file name, falling back to the
// description and then to a placeholder.
func DeriveName(fileName, description string) string {
	if name := cleanName(trimExt(fileName)); name != "" {
		return name
	}
	if name := cleanName(description); name != "" {
		return name
	}
	return untitledWorkout
}

func trimExt(fileName string) string {
	ext := filepath.Ext(fileName)
	switch strings.ToLower(ext) {
	case ".mrc", ".erg", ".txt":
		return strings.TrimSuffix(fileName, ext)
	}
	return fileName
}

func cleanName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = createdByRe.ReplaceAllString(s, "")
	s = vendorSignatureRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " -–")
}
