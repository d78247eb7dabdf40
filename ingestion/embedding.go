package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/search"
	"github.com/poiesic/reqmatch/storage"
)

// embeddingProcessor embeds requirement descriptions exactly as the searcher
// will, so a caching embedder is primed with the keys searches look up.
type embeddingProcessor struct {
	requirementRepository storage.RequirementRepository
	embedder              ai.Embedder
	batchSize             int
	logger                *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(requirementRepository storage.RequirementRepository, embedder ai.Embedder, batchSize int, logger *slog.Logger) (processor, error) {
	if requirementRepository == nil {
		return nil, ErrRequirementRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		requirementRepository: requirementRepository,
		embedder:              embedder,
		batchSize:             batchSize,
		logger:                logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the normalized descriptions of the given requirements.
func (ep *embeddingProcessor) process(ctx context.Context, referenceIDs ...string) error {
	ep.logger.Info("processing requirements for embeddings", "requirements", len(referenceIDs))

	texts := make([]string, 0, len(referenceIDs))
	seen := make(map[string]struct{}, len(referenceIDs))
	for _, id := range referenceIDs {
		req, err := ep.requirementRepository.GetRequirement(ctx, id)
		if err != nil {
			ep.logger.Error("error retrieving requirement", "referenceId", id, "err", err)
			return err
		}
		text := search.Normalize(req.Description)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		texts = append(texts, text)
	}

	for start := 0; start < len(texts); start += ep.batchSize {
		end := min(start+ep.batchSize, len(texts))
		batch := texts[start:end]

		ep.logger.Debug("generating embeddings for requirements", "texts", len(batch))
		embeddings, err := ep.embedder.EmbedTexts(ctx, batch)
		if err != nil {
			ep.logger.Error("error generating embeddings", "err", err)
			return err
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(embeddings))
		}
	}

	return nil
}
