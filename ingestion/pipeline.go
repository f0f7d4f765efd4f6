package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/seampoint/concierge/ai"
	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

const defaultBatchSize = 16

// Entry is one corpus record to ingest: an FAQ entry (Title holds the
// canonical question) or a document chunk (Title holds the source title).
type Entry struct {
	SourceType core.SourceType
	Title      string
	Body       string
	Category   string
}

// Pipeline embeds and stores corpus entries. Batches run concurrently on
// a worker pool; Ingest blocks until the whole corpus is stored.
type Pipeline struct {
	knowledge storage.KnowledgeRepository
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many entries are embedded per call to the
// embedding service. Default is 16.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.batchSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	knowledge storage.KnowledgeRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if knowledge == nil {
		return nil, ErrKnowledgeRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		knowledge: knowledge,
		embedder:  provider.Embedder(),
		pool:      pool,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest embeds and stores the entries, returning the stored items.
// Batches are processed concurrently; the call blocks until every batch
// has finished. A failing batch does not stop its siblings; all batch
// errors come back joined.
func (p *Pipeline) Ingest(ctx context.Context, entries ...Entry) ([]*core.KnowledgeItem, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	p.logger.Info("ingesting corpus entries", "entries", len(entries), "batchSize", p.batchSize)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		stored []*core.KnowledgeItem
		errs   []error
	)

	for start := 0; start < len(entries); start += p.batchSize {
		end := min(start+p.batchSize, len(entries))
		batch := entries[start:end]

		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			items, err := p.ingestBatch(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			stored = append(stored, items...)
		}); err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	wg.Wait()
	return stored, errors.Join(errs...)
}

// ingestBatch embeds one batch and upserts the vectored items.
func (p *Pipeline) ingestBatch(ctx context.Context, batch []Entry) ([]*core.KnowledgeItem, error) {
	texts := make([]string, len(batch))
	for i, entry := range batch {
		texts[i] = entry.embeddingText()
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Error("error generating embeddings for batch", "entries", len(batch), "err", err)
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, errors.New("embedding result count mismatch")
	}

	items := make([]*core.KnowledgeItem, len(batch))
	for i, entry := range batch {
		items[i] = &core.KnowledgeItem{
			SourceType: entry.SourceType,
			Title:      entry.Title,
			Body:       entry.Body,
			Category:   entry.Category,
			Vector:     vectors[i],
			Active:     true,
		}
	}

	return p.knowledge.UpsertItems(ctx, items...)
}

// embeddingText is what gets vectored for an entry: the question plus
// its answer for FAQ entries, the raw chunk for documents.
func (e Entry) embeddingText() string {
	if e.Title == "" {
		return e.Body
	}
	return e.Title + "\n" + e.Body
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
