package training

import (
	"strings"

	"github.com/poiesic/reqmatch/core"
)

// JoinStats summarizes a join.
type JoinStats struct {
	Requirements int
	Matched      int
	Dropped      int
}

// Join pairs each requirement with the first standard, in input order, whose
// ID is a prefix of the requirement's ReferenceID. Requirements matching no
// standard are dropped. Output preserves requirement order.
//
// An empty ID prefixes every reference ID, so a standard with one claims
// every requirement not matched earlier. Nil entries never match.
func Join(standards []*core.Standard, requirements []*core.Requirement) ([]*core.TrainingRecord, JoinStats) {
	stats := JoinStats{Requirements: len(requirements)}
	records := make([]*core.TrainingRecord, 0, len(requirements))

	for _, req := range requirements {
		if req == nil {
			stats.Dropped++
			continue
		}
		std := match(standards, req.ReferenceID)
		if std == nil {
			stats.Dropped++
			continue
		}
		records = append(records, &core.TrainingRecord{
			ReferenceID:   req.ReferenceID,
			Description:   req.Description,
			Category:      req.Category,
			ChangeNote:    req.ChangeNote,
			StandardRefID: std.RefID,
		})
		stats.Matched++
	}

	return records, stats
}

// match returns the earliest standard whose ID prefixes referenceID.
func match(standards []*core.Standard, referenceID string) *core.Standard {
	for _, std := range standards {
		if std == nil {
			continue
		}
		if strings.HasPrefix(referenceID, std.ID) {
			return std
		}
	}
	return nil
}
