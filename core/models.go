package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Knowledge items use content-based hashing so re-seeding the same
// content never creates duplicate rows.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SourceType identifies the collection a knowledge item belongs to.
type SourceType int

const (
	// SourceTypeFAQ represents curated question/answer entries.
	SourceTypeFAQ SourceType = iota + 1
	// SourceTypeDocument represents chunks of longer reference documents.
	SourceTypeDocument
)

// String returns the collection name used in storage keys and logs.
func (s SourceType) String() string {
	switch s {
	case SourceTypeFAQ:
		return "faq"
	case SourceTypeDocument:
		return "document_chunk"
	default:
		return "unknown"
	}
}

// KnowledgeItem is one row of the knowledge corpus: an FAQ entry or a
// document chunk together with its embedding vector.
// Items are immutable once embedded; an edit is a re-embed and upsert.
type KnowledgeItem struct {
	Id         ID
	SourceType SourceType
	Title      string
	Body       string
	Category   string
	Vector     []float32 // Embedding vector; every vector in a collection shares one dimension
	Active     bool      // Logical delete flag; inactive items never surface in search
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SearchResult pairs a knowledge item with its similarity to a query.
// Similarity is 1 - cosine_distance, so it lies in [-1, 1].
type SearchResult struct {
	Item       *KnowledgeItem
	Similarity float32
}

// RetrievalMethod tags which tier of the fallback chain produced an outcome.
type RetrievalMethod int

const (
	// MethodSemanticFAQ means the top semantic hit came from the FAQ collection.
	MethodSemanticFAQ RetrievalMethod = iota + 1
	// MethodSemanticDocument means the top semantic hit came from document chunks.
	MethodSemanticDocument
	// MethodKeyword means a keyword rule matched and canned category entries were used.
	MethodKeyword
	// MethodFallback means the generic terminal fallback was used.
	MethodFallback
)

func (m RetrievalMethod) String() string {
	switch m {
	case MethodSemanticFAQ:
		return "semantic_faq"
	case MethodSemanticDocument:
		return "semantic_document"
	case MethodKeyword:
		return "keyword"
	case MethodFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// RetrievalOutcome is the product of one retrieval pass: the tier that
// answered, the ranked results, and the threshold that was in effect.
// Results are ordered by similarity descending, ties broken by ascending id.
type RetrievalOutcome struct {
	Method    RetrievalMethod
	Results   []*SearchResult
	Threshold float32
}

// Best returns the top-ranked result, or nil when the outcome is empty.
func (o *RetrievalOutcome) Best() *SearchResult {
	if o == nil || len(o.Results) == 0 {
		return nil
	}
	return o.Results[0]
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser represents the human visitor.
	RoleUser Role = iota + 1
	// RoleAssistant represents the answering engine.
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is one message in a conversation session.
type Turn struct {
	Role Role
	Text string
}

// Stage is the engagement stage of a conversation session.
type Stage int

const (
	// StageDiscovery covers the first four turns of a session.
	StageDiscovery Stage = iota + 1
	// StageEngaged is entered at turn five once enough action kinds have been offered.
	StageEngaged
	// StageDeepened covers turn six onward.
	StageDeepened
)

func (s Stage) String() string {
	switch s {
	case StageDiscovery:
		return "discovery"
	case StageEngaged:
		return "engaged"
	case StageDeepened:
		return "deepened"
	default:
		return "unknown"
	}
}

// DefaultHistoryTurns is the bounded history window kept per session.
// TurnCount keeps growing while History is trimmed to this many turns.
const DefaultHistoryTurns = 6

// Session is the per-conversation state record.
// It is mutated on every turn and must only be written by one request at
// a time; the conversation package serializes writers per session id.
type Session struct {
	Id              string
	TurnCount       int
	History         []Turn
	LastActions     []ActionKind // Actions offered on the most recent turn
	OfferedKinds    []ActionKind // Distinct action kinds offered across the whole session
	Stage           Stage
	CelebrationSent bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppendTurn appends a turn and trims history to the given window.
// A limit <= 0 falls back to DefaultHistoryTurns.
func (s *Session) AppendTurn(role Role, text string, limit int) {
	if limit <= 0 {
		limit = DefaultHistoryTurns
	}
	s.History = append(s.History, Turn{Role: role, Text: text})
	if len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// RecordOffered stores the actions offered this turn and folds them into
// the session-wide distinct set.
func (s *Session) RecordOffered(kinds []ActionKind) {
	s.LastActions = append([]ActionKind(nil), kinds...)
	for _, kind := range kinds {
		seen := false
		for _, existing := range s.OfferedKinds {
			if existing == kind {
				seen = true
				break
			}
		}
		if !seen {
			s.OfferedKinds = append(s.OfferedKinds, kind)
		}
	}
}

// Checkpoint records progress of a long-running maintenance job, such as
// corpus re-embedding, so an interrupted run can resume.
type Checkpoint struct {
	JobName   string
	LastId    ID
	UpdatedAt time.Time
}
