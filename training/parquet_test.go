package training

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/poiesic/reqmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "training.parquet")
	encoded, labels := Encode(recordsWithLabels("S2", "S1", "S2"))
	encoded[0].Description = "encrypt data at rest"

	require.NoError(t, WriteParquet(path, encoded, labels))

	rows, err := parquet.ReadFile[ParquetRecord](path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "S2-req", rows[0].ReferenceID)
	assert.Equal(t, "encrypt data at rest", rows[0].Description)
	assert.Equal(t, int64(1), rows[0].Label)
	assert.Equal(t, "S2", rows[0].LabelName)
	assert.Equal(t, int64(2), rows[1].Label)
	assert.Equal(t, "S1", rows[1].LabelName)
}

func TestWriteParquet_WithoutLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "training.parquet")
	records := []*core.EncodedTrainingRecord{{ReferenceID: "R1", Label: 7}}

	require.NoError(t, WriteParquet(path, records, nil))

	rows, err := parquet.ReadFile[ParquetRecord](path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].Label)
	assert.Empty(t, rows[0].LabelName)
}
