package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/seampoint/concierge/ai"
	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

// BatchProcessor regenerates embeddings for batches of knowledge items.
type BatchProcessor struct {
	repo           storage.KnowledgeRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.KnowledgeRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates fresh embeddings for a batch of items and writes them
// back. Vectors are normalized after embedding so cosine similarity
// behaves the same across embedding models.
func (bp *BatchProcessor) Process(ctx context.Context, items []*core.KnowledgeItem) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = embeddingText(item)
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(items), len(embeddings))
	}

	for i := range items {
		items[i].Vector = NormalizeVector(embeddings[i])
	}

	_, err = bp.repo.UpsertItems(ctx, items...)
	if err != nil {
		return fmt.Errorf("failed to update items: %w", err)
	}

	return nil
}

// embeddingText mirrors what ingestion vectors: question plus answer for
// FAQ entries, the raw chunk for documents.
func embeddingText(item *core.KnowledgeItem) string {
	if item.Title == "" {
		return item.Body
	}
	return item.Title + "\n" + item.Body
}
