package retrieval

import "github.com/seampoint/concierge/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track which tiers ran and what each produced.
type RetrievalMonitor interface {
	Start(query string)
	EmbeddingFailed(attempt int, err error)
	AfterEmbedding(dimension int)
	AfterSemanticSearch(st core.SourceType, ids []uint64)
	KeywordRuleMatched(category string, ids []uint64)
	FallbackReached()
	Finish(outcome *core.RetrievalOutcome)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                    {}
func (n *noopMonitor) EmbeddingFailed(_ int, _ error)                    {}
func (n *noopMonitor) AfterEmbedding(_ int)                              {}
func (n *noopMonitor) AfterSemanticSearch(_ core.SourceType, _ []uint64) {}
func (n *noopMonitor) KeywordRuleMatched(_ string, _ []uint64)           {}
func (n *noopMonitor) FallbackReached()                                  {}
func (n *noopMonitor) Finish(_ *core.RetrievalOutcome)                   {}
