package mrc

import (
	"fmt"
	"math"
)

const (
	maxIntensityPercent   = 300
	defaultIntensityRange = "60-70% FTP"
	secondsPerHour        = 3600.0
)

// TotalDurationMinutes is the offset of the last sample.
func TotalDurationMinutes(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return samples[len(samples)-1].OffsetMinutes
}

// AverageIntensity is the time-weighted mean intensity. Each interval between
// two samples carries the value of its earlier sample.
func AverageIntensity(samples []Sample) int {
	if len(samples) < 2 {
		return 0
	}
	var weighted, total float64
	for i := 0; i+1 < len(samples); i++ {
		dt := samples[i+1].OffsetMinutes - samples[i].OffsetMinutes
		weighted += dt * samples[i].IntensityPercent
		total += dt
	}
	if total <= 0 {
		return 0
	}
	avg := int(math.Round(weighted / total))
	return min(max(avg, 0), maxIntensityPercent)
}

// EstimatedTSS estimates training stress with the intensity-factor-squared
// method: hours × IF² × 100, where IF² is the duration-weighted mean over blocks.
func EstimatedTSS(blocks []Block, totalDurationMinutes float64) int {
	if len(blocks) == 0 || totalDurationMinutes <= 0 {
		return 0
	}
	var weighted, total float64
	for _, b := range blocks {
		reps := b.RepeatCount
		if reps < 1 {
			reps = 1
		}
		d := float64(b.DurationSeconds * reps)
		ifv := float64(b.PercentOfReference) / 100
		weighted += d * ifv * ifv
		total += d
	}
	if total <= 0 {
		return 0
	}
	avgIF := math.Sqrt(weighted / total)
	hours := totalDurationMinutes * 60 / secondsPerHour
	return int(math.Round(hours * avgIF * avgIF * 100))
}

// IntensityRange describes the spread of block targets, e.g. "55-105% FTP".
func IntensityRange(blocks []Block) string {
	if len(blocks) == 0 {
		return defaultIntensityRange
	}
	lo, hi := blocks[0].PercentOfReference, blocks[0].PercentOfReference
	for _, b := range blocks[1:] {
		lo = min(lo, b.PercentOfReference)
		hi = max(hi, b.PercentOfReference)
	}
	if lo == hi {
		return fmt.Sprintf("%d%% FTP", lo)
	}
	return fmt.Sprintf("%d-%d%% FTP", lo, hi)
}
