// Package store persists finished search records as parquet files, so
// result sets can be inspected and compared across runs with standard
// columnar tooling.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/fwachter/quintus/search"
)

// RecordRow is one finished counterpoint line. Notes are stored as nested
// rows, one per placed note, so a single row reconstructs the whole line.
type RecordRow struct {
	RunID     string  `parquet:"run_id,dict"`
	Rank      int32   `parquet:"rank"`
	Reward    float64 `parquet:"reward"`
	Tonic     string  `parquet:"tonic,dict"`
	ScaleType string  `parquet:"scale_type,dict"`
	NMeasures int32   `parquet:"n_measures"`
	Seed      int64   `parquet:"seed"`

	CantusFirmus []NoteRow `parquet:"cantus_firmus"`
	Counterpoint []NoteRow `parquet:"counterpoint"`

	CreatedAtUnixMs int64 `parquet:"created_at_unix_ms"`
}

// NoteRow is a single placed note.
type NoteRow struct {
	Note                string `parquet:"note,dict"`
	PositionInSemitones int32  `parquet:"position_in_semitones"`
	StartTimeInEighths  int32  `parquet:"start_time_in_eighths"`
	EndTimeInEighths    int32  `parquet:"end_time_in_eighths"`
}

// RecordRows flattens a ranked record list into parquet rows. The rank
// preserves the search ordering, best first.
func RecordRows(runID string, seed int64, records []search.Record) []RecordRow {
	now := time.Now().UnixMilli()
	rows := make([]RecordRow, 0, len(records))
	for rank, record := range records {
		p := record.Piece
		row := RecordRow{
			RunID:           runID,
			Rank:            int32(rank),
			Reward:          record.Reward,
			Tonic:           p.Scale.Tonic,
			ScaleType:       string(p.Scale.Type),
			NMeasures:       int32(p.NMeasures()),
			Seed:            seed,
			CantusFirmus:    make([]NoteRow, 0, len(p.CantusFirmus)),
			Counterpoint:    make([]NoteRow, 0, len(p.Counterpoint)),
			CreatedAtUnixMs: now,
		}
		for _, el := range p.CantusFirmus {
			row.CantusFirmus = append(row.CantusFirmus, NoteRow{
				Note:                el.Note,
				PositionInSemitones: int32(el.PositionInSemitones),
				StartTimeInEighths:  int32(el.StartTimeInEighths),
				EndTimeInEighths:    int32(el.EndTimeInEighths),
			})
		}
		for _, el := range p.Counterpoint {
			row.Counterpoint = append(row.Counterpoint, NoteRow{
				Note:                el.Note,
				PositionInSemitones: int32(el.PositionInSemitones),
				StartTimeInEighths:  int32(el.StartTimeInEighths),
				EndTimeInEighths:    int32(el.EndTimeInEighths),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteRecordsParquet writes rows to outPath. The file is written to a temp
// path and renamed, so readers never observe a partial file.
func WriteRecordsParquet(outPath string, rows []RecordRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "record_row_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteRecordsBatch writes rows into outDir under a timestamped name and
// returns the final path.
func WriteRecordsBatch(outDir string, rows []RecordRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("records_%d.parquet", time.Now().UnixNano())
	outPath := filepath.Join(outDir, name)
	if err := WriteRecordsParquet(outPath, rows); err != nil {
		return "", err
	}
	return outPath, nil
}

// ReadRecordsParquet loads a record file back, best rank first.
func ReadRecordsParquet(path string) ([]RecordRow, error) {
	rows, err := parquet.ReadFile[RecordRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
