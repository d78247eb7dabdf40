package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/search"
)

// Refresher recomputes and stores the vectors for texts.
type Refresher interface {
	Refresh(ctx context.Context, texts []string) error
}

// BatchProcessor re-embeds batches of requirements.
type BatchProcessor struct {
	refresher      Refresher
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per batch
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(refresher Refresher, maxRetries int, retryBaseDelay time.Duration, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		refresher:      refresher,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         logger,
	}
}

// Process refreshes the cached vectors of a batch of requirements. The
// descriptions are normalized the way searches normalize them; empty and
// repeated texts are skipped. Returns the number of texts embedded.
func (bp *BatchProcessor) Process(ctx context.Context, requirements []*core.Requirement) (int, error) {
	texts := make([]string, 0, len(requirements))
	seen := make(map[string]struct{}, len(requirements))
	for _, req := range requirements {
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
	if len(texts) == 0 {
		return 0, nil
	}

	err := RetryWithBackoff(ctx, bp.logger, func(ctx context.Context) error {
		return bp.refresher.Refresh(ctx, texts)
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	return len(texts), nil
}
