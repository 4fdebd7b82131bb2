package mrc

import "math"

// segment is a run of equal-intensity samples before classification.
type segment struct {
	startMin  float64
	endMin    float64
	intensity float64
	label     string
}

func (s segment) seconds() int {
	return int(math.Round((s.endMin - s.startMin) * 60))
}

// BuildBlocks run-length encodes the samples into classified blocks and
// merges neighbours that share role, intensity and note.
func BuildBlocks(samples []Sample) []Block {
	segs := runSegments(samples)
	blocks := make([]Block, 0, len(segs))
	for _, s := range segs {
		blocks = append(blocks, Block{
			Role:               ClassifyBlock(s.label, s.intensity),
			DurationSeconds:    s.seconds(),
			PercentOfReference: int(math.Round(s.intensity)),
			RepeatCount:        1,
			Note:               noteOf(s.label),
		})
	}
	return MergeBlocks(blocks)
}

// runSegments splits samples into maximal equal-intensity runs. A run ends at
// the first sample after it, or at the last sample when it reaches the end.
func runSegments(samples []Sample) []segment {
	var segs []segment
	last := len(samples) - 1
	for i := 0; i < len(samples); {
		j := i + 1
		for j < len(samples) && samples[j].IntensityPercent == samples[i].IntensityPercent {
			j++
		}

		closed := j < len(samples)
		end := samples[last].OffsetMinutes
		if closed {
			end = samples[j].OffsetMinutes
		}
		seg := segment{
			startMin:  samples[i].OffsetMinutes,
			endMin:    end,
			intensity: samples[i].IntensityPercent,
			label:     samples[i].Label,
		}

		switch {
		case seg.endMin > seg.startMin:
			segs = append(segs, seg)
		case !closed && j-i == 1 && i > 0:
			// Lone final sample: the closing target of the file.
			seg.endMin = seg.startMin
			segs = append(segs, seg)
		}
		i = j
	}
	return segs
}

// MergeBlocks collapses adjacent blocks with the same role, intensity and
// note. Running it on its own output changes nothing.
func MergeBlocks(blocks []Block) []Block {
	if len(blocks) == 0 {
		return nil
	}
	merged := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if n := len(merged); n > 0 && sameBlock(merged[n-1], b) {
			merged[n-1].DurationSeconds += b.DurationSeconds
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

func sameBlock(a, b Block) bool {
	if a.Role != b.Role || a.PercentOfReference != b.PercentOfReference {
		return false
	}
	return noteValue(a.Note) == noteValue(b.Note)
}

func noteOf(label string) *string {
	if label == "" {
		return nil
	}
	return &label
}

func noteValue(n *string) string {
	if n == nil {
		return ""
	}
	return *n
}
