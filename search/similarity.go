package search

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
//
// Vectors of different length, and vectors with zero magnitude, score 0
// rather than failing. Accumulation runs in float64 and the result is
// clamped into [-1, 1].
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return float32(score)
}
