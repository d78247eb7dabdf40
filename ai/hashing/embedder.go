// Package hashing provides a deterministic, offline embedder.
//
// Texts are split into lowercase tokens and every token is hashed into one
// of Dimensions buckets (the hashing trick), then the vector is scaled to
// unit length. Texts sharing vocabulary score high under cosine similarity.
// It needs no model server, so it backs demos, tests and air-gapped runs.
package hashing

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/reqmatch/ai"
)

// Embedder implements ai.Embedder with feature hashing.
type Embedder struct {
	dim    int
	logger *slog.Logger
}

// NewEmbedder returns an embedder producing vectors of width dim.
func NewEmbedder(dim int) *Embedder {
	if dim < 1 {
		dim = ai.DefaultConfig().Dimensions
	}
	return &Embedder{
		dim:    dim,
		logger: slog.Default().With("component", "hashing-embedder"),
	}
}

// EmbedText embeds a single text. Text without tokens yields a zero vector.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// EmbedTexts embeds texts in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	vec := ai.ZeroVector(e.dim)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return vec
	}

	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dim))
		// top bit picks the sign so colliding tokens tend to cancel
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// Provider implements ai.AIProvider around a hashing Embedder.
type Provider struct {
	embedder *Embedder
}

// NewProvider creates a hashing provider sized by config.Dimensions.
//
// Returns ai.AIProvider interface for consistency with the other providers.
func NewProvider(config *ai.Config) ai.AIProvider {
	return &Provider{embedder: NewEmbedder(config.Dimensions)}
}

// Embedder returns the hashing embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// ModelID identifies the hashing scheme and width.
func (p *Provider) ModelID() string {
	return "hashing:fnv64a:" + strconv.Itoa(p.embedder.dim)
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
