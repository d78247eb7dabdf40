package core

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// EmbeddingDimension is the vector width produced by the production
// embedding model. Embedders that fall back to a zero vector use this size.
const EmbeddingDimension = 512

// MaxDescriptionLength caps requirement descriptions, counted in runes.
const MaxDescriptionLength = 500

// ID is a content-derived identifier used for cache keys.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Standard is a reference standard a requirement may derive from.
// ID acts as an identifier prefix: a requirement derives from the
// standard when its ReferenceID starts with ID.
type Standard struct {
	ID      string
	Type    string
	RefID   string // label used as the classification target
	RefName string
}

// Requirement is a single requirement row from the catalogue.
type Requirement struct {
	ReferenceID string
	Description string
	Category    string
	ChangeNote  string
}

// StandardRequirement is a requirement offered as a search candidate.
// Search results are the caller's own pointers, never copies.
type StandardRequirement = Requirement

// TrainingRecord is a requirement joined to the standard it derives from.
type TrainingRecord struct {
	ReferenceID   string
	Description   string
	Category      string
	ChangeNote    string
	StandardRefID string
}

// EncodedTrainingRecord is a TrainingRecord whose standard label has been
// replaced by its integer code.
type EncodedTrainingRecord struct {
	ReferenceID string
	Description string
	Category    string
	ChangeNote  string
	Label       int
}

// TruncateDescription shortens s to at most MaxDescriptionLength runes.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionLength {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxDescriptionLength {
			return s[:i]
		}
		n++
	}
	return s
}
