package mrc

// Category tells whether a file encodes a trainer ride or a bodyweight circuit.
type Category string

const (
	CategoryCycling Category = "cycling"
	CategoryPPG     Category = "ppg"
)

// BlockRole is the semantic role of a constant-intensity block.
type BlockRole string

const (
	RoleWarmup   BlockRole = "warmup"
	RoleInterval BlockRole = "interval"
	RoleEffort   BlockRole = "effort"
	RoleRecovery BlockRole = "recovery"
	RoleCooldown BlockRole = "cooldown"
)

// Level is the difficulty derived from the file description and name.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelExpert       Level = "expert"
)

// Sample is one decoded line of the course data section.
type Sample struct {
	OffsetMinutes    float64 `json:"offset_min"`
	IntensityPercent float64 `json:"intensity_pct"`
	Label            string  `json:"label,omitempty"`
}

// Header holds the key/value metadata of the course header section.
type Header struct {
	FormatVersion int    `json:"format_version"`
	Units         string `json:"units,omitempty"`
	Description   string `json:"description,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	DataFormat    string `json:"data_format,omitempty"`
}

// Block is a contiguous, classified segment of constant target intensity.
type Block struct {
	Role               BlockRole `json:"role"`
	DurationSeconds    int       `json:"duration_sec"`
	PercentOfReference int       `json:"pct_ftp"`
	RepeatCount        int       `json:"repeat_count"`
	Note               *string   `json:"note,omitempty"`
}

// Exercise is one distinct bodyweight exercise with its set count.
type Exercise struct {
	Name           string  `json:"name"`
	PerSetDuration string  `json:"per_set_duration"`
	RepCount       *int    `json:"rep_count"`
	SetCount       int     `json:"set_count"`
	RestDuration   string  `json:"rest_duration"`
	Note           *string `json:"note,omitempty"`
}

// Workout is the result of parsing one MRC file. Exactly one of Blocks and
// Exercises is set, depending on Category.
type Workout struct {
	Header                  Header     `json:"header"`
	Samples                 []Sample   `json:"samples"`
	Category                Category   `json:"category"`
	Blocks                  []Block    `json:"blocks,omitempty"`
	Exercises               []Exercise `json:"exercises,omitempty"`
	TotalDurationMinutes    float64    `json:"total_duration_min"`
	AverageIntensityPercent int        `json:"avg_intensity_pct"`
	Name                    string     `json:"name"`
	Level                   Level      `json:"level"`
}

// Summary is the compact view handed to storage and API callers.
type Summary struct {
	Name                    string   `json:"name"`
	Category                Category `json:"category"`
	Level                   Level    `json:"level"`
	TotalDurationMinutes    float64  `json:"total_duration_min"`
	AverageIntensityPercent int      `json:"avg_intensity_pct"`
	EstimatedTSS            int      `json:"estimated_tss"`
	IntensityRange          string   `json:"intensity_range"`
	Blocks                  int      `json:"blocks"`
	Exercises               int      `json:"exercises"`
}

// Summary computes TSS and the intensity range from the parsed blocks.
// PPG workouts have no blocks, so their TSS is 0 and the range is the default.
func (w *Workout) Summary() Summary {
	return Summary{
		Name:                    w.Name,
		Category:                w.Category,
		Level:                   w.Level,
		TotalDurationMinutes:    w.TotalDurationMinutes,
		AverageIntensityPercent: w.AverageIntensityPercent,
		EstimatedTSS:            EstimatedTSS(w.Blocks, w.TotalDurationMinutes),
		IntensityRange:          IntensityRange(w.Blocks),
		Blocks:                  len(w.Blocks),
		Exercises:               len(w.Exercises),
	}
}
