package mrc

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// labeledLineRe matches: 10.5  90  "Interval 3/5"
	labeledLineRe = regexp.MustCompile(`^([-+]?\d*\.?\d+)\s+([-+]?\d*\.?\d+)\s+"(.*)"$`)

	// plainLineRe matches: 10.5  90
	plainLineRe = regexp.MustCompile(`^([-+]?\d*\.?\d+)\s+([-+]?\d*\.?\d+)$`)
)

// ExtractSamples decodes the course data section in file order. Lines that
// match neither grammar are skipped, so an empty slice is a valid result here.
func ExtractSamples(text string) ([]Sample, error) {
	body, ok := section(text, dataStart, dataEnd)
	if !ok {
		return nil, ErrMissingDataSection
	}

	var samples []Sample
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s, ok := parseDataLine(line); ok {
			samples = append(samples, s)
		}
	}
	return samples, nil
}

// parseDataLine tries the labeled grammar first, then the bare one.
func parseDataLine(line string) (Sample, bool) {
	if m := labeledLineRe.FindStringSubmatch(line); m != nil {
		return newSample(m[1], m[2], m[3])
	}
	if m := plainLineRe.FindStringSubmatch(line); m != nil {
		return newSample(m[1], m[2], "")
	}
	return Sample{}, false
}

func newSample(minutes, percent, label string) (Sample, bool) {
	offset, err := strconv.ParseFloat(minutes, 64)
	if err != nil {
		return Sample{}, false
	}
	intensity, err := strconv.ParseFloat(percent, 64)
	if err != nil {
		return Sample{}, false
	}
	return Sample{
		OffsetMinutes:    offset,
		IntensityPercent: intensity,
		Label:            strings.TrimSpace(label),
	}, true
}
