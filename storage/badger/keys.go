package badger

import (
	"encoding/binary"

	"github.com/poiesic/reqmatch/core"
)

// Key prefixes for different data types.
// Record keys end in a big-endian sequence number so that prefix iteration
// returns records in the order they were added.
const (
	standardPrefix      = "std"
	standardIDPrefix    = "stdid"
	standardSeq         = "stdseq"
	requirementPrefix   = "req"
	requirementIDPrefix = "reqid"
	requirementSeq      = "reqseq"
	embeddingPrefix     = "emb"
	labelMapPrefix      = "lbl"
)

// makeSeqKey generates a key for a record by its sequence number.
// Format: prefix:seq
func makeSeqKey(prefix string, seq uint64) []byte {
	p := []byte(prefix + ":")
	buf := make([]byte, len(p)+8)
	offset := copy(buf, p)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeIndexKey generates a key mapping a natural identifier to its sequence number.
// Format: prefix:id
func makeIndexKey(prefix, id string) []byte {
	return []byte(prefix + ":" + id)
}

// makeEmbeddingKey generates a key for a cached vector.
// Format: prefix:id
func makeEmbeddingKey(id core.ID) []byte {
	p := []byte(embeddingPrefix + ":")
	buf := make([]byte, len(p)+8)
	offset := copy(buf, p)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeLabelMapKey generates a key for a named label map.
func makeLabelMapKey(name string) []byte {
	return []byte(labelMapPrefix + ":" + name)
}

// scanPrefix returns the iteration prefix for keys built by makeSeqKey.
func scanPrefix(prefix string) []byte {
	return []byte(prefix + ":")
}
