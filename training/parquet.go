package training

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/poiesic/reqmatch/core"
)

// ParquetRecord is the on-disk schema of an encoded training record.
type ParquetRecord struct {
	ReferenceID string `parquet:"reference_id"`
	Description string `parquet:"description"`
	Category    string `parquet:"category"`
	ChangeNote  string `parquet:"change_note"`
	Label       int64  `parquet:"label"`
	LabelName   string `parquet:"label_name"`
}

// WriteParquet writes records to path, creating parent directories as needed.
// labels resolves each code back to its standard label and may be nil.
func WriteParquet(path string, records []*core.EncodedTrainingRecord, labels *core.LabelMap) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	rows := make([]ParquetRecord, 0, len(records))
	for _, r := range records {
		row := ParquetRecord{
			ReferenceID: r.ReferenceID,
			Description: r.Description,
			Category:    r.Category,
			ChangeNote:  r.ChangeNote,
			Label:       int64(r.Label),
		}
		if labels != nil {
			row.LabelName, _ = labels.Label(r.Label)
		}
		rows = append(rows, row)
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
