package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/seampoint/concierge/ai"
	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

const (
	defaultThreshold    = 0.7
	defaultFAQLimit     = 3
	defaultDocLimit     = 5
	defaultRetryDelay   = 150 * time.Millisecond
	defaultEmbedTimeout = 5 * time.Second
)

// Orchestrator walks the tiered retrieval chain for a question: semantic
// search over FAQ entries and document chunks merged into one ranking,
// then keyword rules, then a terminal fallback with canned entries. It
// always produces an outcome; embedding and storage failures degrade to
// the next tier instead of surfacing.
type Orchestrator struct {
	knowledge    storage.KnowledgeRepository
	embedder     ai.Embedder
	logger       *slog.Logger
	threshold    float32
	faqLimit     int
	docLimit     int
	retryDelay   time.Duration
	embedTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithThreshold sets the minimum cosine similarity a semantic match must
// reach before it counts. Default is 0.7.
func WithThreshold(threshold float32) Option {
	return func(o *Orchestrator) error {
		o.threshold = threshold
		return nil
	}
}

// WithLimits sets the maximum results per semantic tier.
// Defaults are 3 FAQ entries and 5 document chunks.
func WithLimits(faqLimit, docLimit int) Option {
	return func(o *Orchestrator) error {
		o.faqLimit = faqLimit
		o.docLimit = docLimit
		return nil
	}
}

// WithRetryDelay sets the pause before the single embedding retry.
// Default is 150ms.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *Orchestrator) error {
		o.retryDelay = delay
		return nil
	}
}

// WithEmbedTimeout bounds each embedding call. A hung embedding service
// then degrades to the keyword tier like any other embedding failure.
// Default is 5s.
func WithEmbedTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout > 0 {
			o.embedTimeout = timeout
		}
		return nil
	}
}

// NewOrchestrator creates a new retrieval orchestrator.
func NewOrchestrator(
	knowledge storage.KnowledgeRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Orchestrator, error) {
	if knowledge == nil {
		return nil, ErrKnowledgeRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	o := &Orchestrator{
		knowledge:    knowledge,
		embedder:     provider.Embedder(),
		logger:       slog.Default(),
		threshold:    defaultThreshold,
		faqLimit:     defaultFAQLimit,
		docLimit:     defaultDocLimit,
		retryDelay:   defaultRetryDelay,
		embedTimeout: defaultEmbedTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// Retrieve runs the fallback chain for the query and returns the outcome
// of the first tier that produced results. The chain never dead-ends: when
// everything misses, the outcome carries MethodFallback and the canned
// generic entries.
func (o *Orchestrator) Retrieve(ctx context.Context, query string) (*core.RetrievalOutcome, error) {
	return o.RetrieveWithMonitor(ctx, query, nil)
}

// RetrieveWithMonitor runs the fallback chain with monitoring.
// The monitor receives callbacks as each tier runs.
func (o *Orchestrator) RetrieveWithMonitor(ctx context.Context, query string, monitor RetrievalMonitor) (*core.RetrievalOutcome, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	// 1. Semantic tier. An embedding or store failure is transient by
	// assumption: the chain degrades to keyword matching instead of
	// erroring out.
	vector, err := o.embedQuery(ctx, query, monitor)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn("embedding unavailable, skipping semantic tier", "err", err)
	} else {
		monitor.AfterEmbedding(len(vector))

		results, err := o.semanticTier(ctx, vector, monitor)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Error("semantic tier unavailable, falling through", "err", err)
		} else if len(results) > 0 {
			method := core.MethodSemanticFAQ
			if results[0].Item.SourceType == core.SourceTypeDocument {
				method = core.MethodSemanticDocument
			}
			outcome := &core.RetrievalOutcome{
				Method:    method,
				Results:   results,
				Threshold: o.threshold,
			}
			monitor.Finish(outcome)
			return outcome, nil
		}
	}

	// 2. Keyword rules
	if category, ok := matchCategory(query); ok {
		items, err := o.knowledge.GetByCategory(ctx, core.SourceTypeFAQ, category, o.faqLimit)
		if err != nil {
			o.logger.Error("error querying category index, falling through", "category", category, "err", err)
		} else if len(items) > 0 {
			results := make([]*core.SearchResult, 0, len(items))
			ids := make([]uint64, 0, len(items))
			for _, item := range items {
				results = append(results, &core.SearchResult{Item: item})
				ids = append(ids, uint64(item.Id))
			}
			monitor.KeywordRuleMatched(category, ids)

			outcome := &core.RetrievalOutcome{
				Method:    core.MethodKeyword,
				Results:   results,
				Threshold: o.threshold,
			}
			monitor.Finish(outcome)
			return outcome, nil
		}
	}

	// 3. Terminal fallback. Canned entries held in memory, so this tier
	// cannot fail.
	monitor.FallbackReached()
	outcome := &core.RetrievalOutcome{
		Method:    core.MethodFallback,
		Results:   fallbackResults(),
		Threshold: o.threshold,
	}
	monitor.Finish(outcome)
	return outcome, nil
}

// embedQuery embeds the query, retrying once after a short pause.
func (o *Orchestrator) embedQuery(ctx context.Context, query string, monitor RetrievalMonitor) ([]float32, error) {
	vector, err := o.embedOnce(ctx, query)
	if err == nil {
		return vector, nil
	}
	monitor.EmbeddingFailed(1, err)
	o.logger.Warn("error generating embedding for query, retrying", "err", err)

	select {
	case <-time.After(o.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	vector, err = o.embedOnce(ctx, query)
	if err != nil {
		monitor.EmbeddingFailed(2, err)
		return nil, err
	}
	return vector, nil
}

// embedOnce makes one bounded embedding attempt. The per-call deadline
// keeps a hung embedding service from blocking the whole chain.
func (o *Orchestrator) embedOnce(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, o.embedTimeout)
	defer cancel()
	return o.embedder.EmbedText(ctx, query)
}

// semanticTier searches both collections with their own limits and merges
// the hits into one sequence ordered by descending similarity, ties broken
// by ascending item id.
func (o *Orchestrator) semanticTier(ctx context.Context, vector []float32, monitor RetrievalMonitor) ([]*core.SearchResult, error) {
	merged := make([]*core.SearchResult, 0, o.faqLimit+o.docLimit)
	for _, tier := range []struct {
		st    core.SourceType
		limit int
	}{
		{core.SourceTypeFAQ, o.faqLimit},
		{core.SourceTypeDocument, o.docLimit},
	} {
		matches, err := o.knowledge.FindSimilar(ctx, tier.st, vector, o.threshold, tier.limit)
		if err != nil {
			o.logger.Error("error querying for similar items", "sourceType", tier.st, "err", err)
			return nil, err
		}

		ids := make([]uint64, 0, len(matches))
		for _, match := range matches {
			ids = append(ids, uint64(match.Item.Id))
		}
		monitor.AfterSemanticSearch(tier.st, ids)

		merged = append(merged, matches...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].Item.Id < merged[j].Item.Id
	})
	return merged, nil
}
