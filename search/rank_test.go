package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankScored_ThresholdAndStableOrder(t *testing.T) {
	scored := []Scored[int]{
		{Item: 0, Score: 0.9},
		{Item: 1, Score: 0.8},
		{Item: 2, Score: 0.8},
		{Item: 3, Score: 0.6},
	}

	assert.Equal(t, []int{0, 1, 2}, RankScored(scored, 0.75))
}

func TestRankScored_ThresholdInclusive(t *testing.T) {
	scored := []Scored[string]{
		{Item: "below", Score: 0.7499},
		{Item: "at", Score: 0.75},
	}
	assert.Equal(t, []string{"at"}, RankScored(scored, DefaultThreshold))
}

func TestRankScored_DescendingWithTies(t *testing.T) {
	scored := []Scored[string]{
		{Item: "a", Score: 0.8},
		{Item: "b", Score: 0.95},
		{Item: "c", Score: 0.8},
		{Item: "d", Score: 0.95},
		{Item: "e", Score: 0.76},
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, RankScored(scored, 0.75))
}

func TestRankScored_EmptyAndNoneAbove(t *testing.T) {
	assert.Empty(t, RankScored([]Scored[int]{}, 0.75))
	assert.NotNil(t, RankScored([]Scored[int]{}, 0.75))
	assert.Empty(t, RankScored([]Scored[int]{{Item: 1, Score: 0.1}}, 0.75))
}

func TestRankWithScores_DoesNotMutateInput(t *testing.T) {
	scored := []Scored[int]{{Item: 0, Score: 0.8}, {Item: 1, Score: 0.9}}
	ranked := RankWithScores(scored, 0.5)

	assert.Equal(t, 1, ranked[0].Item)
	assert.Equal(t, float32(0.9), ranked[0].Score)
	assert.Equal(t, 0, scored[0].Item)
}

func TestRank_ScoresVectors(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate[string]{
		{Item: "orthogonal", Vector: []float32{0, 1}},
		{Item: "same", Vector: []float32{2, 0}},
		{Item: "wrong-dim", Vector: []float32{1, 0, 0}},
		{Item: "close", Vector: []float32{0.9, 0.1}},
	}

	assert.Equal(t, []string{"same", "close"}, Rank(query, candidates, DefaultThreshold))
}

func TestRank_NegativeThresholdKeepsMismatches(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate[string]{
		{Item: "mismatch", Vector: []float32{1}},
		{Item: "opposite", Vector: []float32{-1, 0}},
	}
	assert.Equal(t, []string{"mismatch", "opposite"}, Rank(query, candidates, -1))
}
