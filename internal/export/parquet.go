// Package export writes parsed workouts as SNAPPY-compressed Parquet files
// for analysis in columnar tools.
package export

import (
	"github.com/claude/trainerlab/internal/mrc"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const parallelism = 4

type sampleRow struct {
	Index        int64   `parquet:"name=index, type=INT64"`
	OffsetMin    float64 `parquet:"name=offset_min, type=DOUBLE"`
	IntensityPct float64 `parquet:"name=intensity_pct, type=DOUBLE"`
	Label        string  `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

type blockRow struct {
	Position    int32  `parquet:"name=position, type=INT32"`
	Role        string `parquet:"name=role, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	DurationSec int32  `parquet:"name=duration_sec, type=INT32"`
	PctFTP      int32  `parquet:"name=pct_ftp, type=INT32"`
	RepeatCount int32  `parquet:"name=repeat_count, type=INT32"`
	Note        string `parquet:"name=note, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type exerciseRow struct {
	Position       int32  `parquet:"name=position, type=INT32"`
	Name           string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	PerSetDuration string `parquet:"name=per_set_duration, type=BYTE_ARRAY, convertedtype=UTF8"`
	SetCount       int32  `parquet:"name=set_count, type=INT32"`
	RestDuration   string `parquet:"name=rest_duration, type=BYTE_ARRAY, convertedtype=UTF8"`
	Note           string `parquet:"name=note, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// SamplesParquet writes one row per decoded sample.
func SamplesParquet(w *mrc.Workout) ([]byte, error) {
	rows := make([]any, len(w.Samples))
	for i, s := range w.Samples {
		rows[i] = sampleRow{
			Index:        int64(i),
			OffsetMin:    s.OffsetMinutes,
			IntensityPct: s.IntensityPercent,
			Label:        s.Label,
		}
	}
	return marshal(new(sampleRow), rows)
}

// BlocksParquet writes the cycling blocks, or the exercises for a PPG workout.
func BlocksParquet(w *mrc.Workout) ([]byte, error) {
	if w.Category == mrc.CategoryPPG {
		rows := make([]any, len(w.Exercises))
		for i, e := range w.Exercises {
			rows[i] = exerciseRow{
				Position:       int32(i + 1),
				Name:           e.Name,
				PerSetDuration: e.PerSetDuration,
				SetCount:       int32(e.SetCount),
				RestDuration:   e.RestDuration,
				Note:           deref(e.Note),
			}
		}
		return marshal(new(exerciseRow), rows)
	}

	rows := make([]any, len(w.Blocks))
	for i, b := range w.Blocks {
		rows[i] = blockRow{
			Position:    int32(i + 1),
			Role:        string(b.Role),
			DurationSec: int32(b.DurationSeconds),
			PctFTP:      int32(b.PercentOfReference),
			RepeatCount: int32(b.RepeatCount),
			Note:        deref(b.Note),
		}
	}
	return marshal(new(blockRow), rows)
}

func marshal(schema any, rows []any) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, schema, parallelism)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
