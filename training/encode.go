package training

import "github.com/poiesic/reqmatch/core"

// Encode replaces each record's StandardRefID with an integer code. Codes are
// assigned in order of first appearance starting at 1, so equal labels always
// share a code and the mapping depends only on input order.
func Encode(records []*core.TrainingRecord) ([]*core.EncodedTrainingRecord, *core.LabelMap) {
	labels := core.NewLabelMap()
	return EncodeWith(records, labels), labels
}

// EncodeWith encodes records against an existing label map. Labels already in
// the map keep their codes; new labels are appended after the highest code.
func EncodeWith(records []*core.TrainingRecord, labels *core.LabelMap) []*core.EncodedTrainingRecord {
	encoded := make([]*core.EncodedTrainingRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		encoded = append(encoded, &core.EncodedTrainingRecord{
			ReferenceID: r.ReferenceID,
			Description: r.Description,
			Category:    r.Category,
			ChangeNote:  r.ChangeNote,
			Label:       labels.Assign(r.StandardRefID),
		})
	}
	return encoded
}

// JoinAndEncode joins requirements to standards and encodes the result.
func JoinAndEncode(standards []*core.Standard, requirements []*core.Requirement) ([]*core.EncodedTrainingRecord, *core.LabelMap, JoinStats) {
	records, stats := Join(standards, requirements)
	encoded, labels := Encode(records)
	return encoded, labels, stats
}
