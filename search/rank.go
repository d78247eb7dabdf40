package search

import (
	"cmp"
	"slices"
)

// DefaultThreshold is the minimum similarity a candidate needs to be returned.
const DefaultThreshold float32 = 0.75

// Candidate pairs an item with its embedding.
type Candidate[T any] struct {
	Item   T
	Vector []float32
}

// Scored pairs an item with its similarity to the query.
type Scored[T any] struct {
	Item  T
	Score float32
}

// Rank scores every candidate against query and returns the items scoring at
// least threshold, best first. Candidates with equal scores keep their input
// order.
func Rank[T any](query []float32, candidates []Candidate[T], threshold float32) []T {
	scored := make([]Scored[T], len(candidates))
	for i, c := range candidates {
		scored[i] = Scored[T]{Item: c.Item, Score: CosineSimilarity(query, c.Vector)}
	}
	return RankScored(scored, threshold)
}

// RankScored orders pre-scored items like Rank and drops the scores.
func RankScored[T any](scored []Scored[T], threshold float32) []T {
	ranked := RankWithScores(scored, threshold)
	items := make([]T, len(ranked))
	for i, s := range ranked {
		items[i] = s.Item
	}
	return items
}

// RankWithScores filters scored by threshold (inclusive) and stable-sorts the
// survivors by descending score. The input slice is not modified. NaN scores
// never pass the threshold.
func RankWithScores[T any](scored []Scored[T], threshold float32) []Scored[T] {
	kept := make([]Scored[T], 0, len(scored))
	for _, s := range scored {
		if s.Score >= threshold {
			kept = append(kept, s)
		}
	}
	slices.SortStableFunc(kept, func(a, b Scored[T]) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return kept
}
