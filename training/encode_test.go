package training

import (
	"testing"

	"github.com/poiesic/reqmatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordsWithLabels(labels ...string) []*core.TrainingRecord {
	records := make([]*core.TrainingRecord, len(labels))
	for i, l := range labels {
		records[i] = &core.TrainingRecord{ReferenceID: l + "-req", StandardRefID: l}
	}
	return records
}

func codes(encoded []*core.EncodedTrainingRecord) []int {
	out := make([]int, len(encoded))
	for i, r := range encoded {
		out[i] = r.Label
	}
	return out
}

func TestEncode_FirstSeenOrder(t *testing.T) {
	encoded, labels := Encode(recordsWithLabels("S2", "S1", "S2", "S3"))

	assert.Equal(t, []int{1, 2, 1, 3}, codes(encoded))
	assert.Equal(t, []string{"S2", "S1", "S3"}, labels.Labels())

	code, ok := labels.Code("S1")
	require.True(t, ok)
	assert.Equal(t, 2, code)
}

func TestEncode_PreservesFields(t *testing.T) {
	records := []*core.TrainingRecord{{
		ReferenceID:   "ISO-1",
		Description:   "encrypt backups",
		Category:      "crypto",
		ChangeNote:    "added",
		StandardRefID: "iso",
	}}

	encoded, _ := Encode(records)

	require.Len(t, encoded, 1)
	assert.Equal(t, &core.EncodedTrainingRecord{
		ReferenceID: "ISO-1",
		Description: "encrypt backups",
		Category:    "crypto",
		ChangeNote:  "added",
		Label:       1,
	}, encoded[0])
}

func TestEncode_Empty(t *testing.T) {
	encoded, labels := Encode(nil)

	assert.Empty(t, encoded)
	assert.Equal(t, 0, labels.Len())
}

func TestEncode_IndependentCalls(t *testing.T) {
	first, _ := Encode(recordsWithLabels("A", "B"))
	second, _ := Encode(recordsWithLabels("B", "A"))

	assert.Equal(t, []int{1, 2}, codes(first))
	assert.Equal(t, []int{1, 2}, codes(second))
}

func TestEncodeWith_ContinuesExistingMap(t *testing.T) {
	labels, err := core.RestoreLabelMap([]string{"S1", "S2"})
	require.NoError(t, err)

	encoded := EncodeWith(recordsWithLabels("S3", "S2", "S1", "S3"), labels)

	assert.Equal(t, []int{3, 2, 1, 3}, codes(encoded))
	assert.Equal(t, 3, labels.Len())
}

func TestJoinAndEncode(t *testing.T) {
	standards := []*core.Standard{{ID: "A", RefID: "alpha"}, {ID: "B", RefID: "beta"}}
	requirements := []*core.Requirement{
		{ReferenceID: "B1"}, {ReferenceID: "C1"}, {ReferenceID: "A1"}, {ReferenceID: "B2"},
	}

	encoded, labels, stats := JoinAndEncode(standards, requirements)

	assert.Equal(t, []int{1, 2, 1}, codes(encoded))
	assert.Equal(t, []string{"beta", "alpha"}, labels.Labels())
	assert.Equal(t, 1, stats.Dropped)
}
