// Copyright 2025 Seampoint Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package concierge

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/seampoint/concierge/ai"
	"github.com/seampoint/concierge/ai/openai"
	"github.com/seampoint/concierge/conversation"
	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/ingestion"
	"github.com/seampoint/concierge/reembed"
	"github.com/seampoint/concierge/retrieval"
	"github.com/seampoint/concierge/storage"
	"github.com/seampoint/concierge/storage/badger"
	"github.com/seampoint/concierge/synthesis"
)

// Engine wires the retrieval chain, conversation tracker, and answer
// synthesizer over one badger-backed knowledge store. It is the single
// entry point callers use: one Ask per inbound question.
type Engine struct {
	backend        *badger.Backend
	knowledgeRepo  storage.KnowledgeRepository
	sessionRepo    storage.SessionRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	orchestrator   *retrieval.Orchestrator
	tracker        *conversation.Tracker
	synthesizer    *synthesis.Synthesizer
	logger         *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	inMemory      bool
	retrievalOpts []retrieval.Option
	synthesisOpts []synthesis.Option
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects a pre-built AI provider instead of constructing
// one from config. Used by tests with the mock provider.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the store without touching disk.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithRetrievalOptions passes options through to the retrieval orchestrator.
func WithRetrievalOptions(opts ...retrieval.Option) EngineOption {
	return func(o *engineOptions) {
		o.retrievalOpts = append(o.retrievalOpts, opts...)
	}
}

// WithSynthesisOptions passes options through to the answer synthesizer.
func WithSynthesisOptions(opts ...synthesis.Option) EngineOption {
	return func(o *engineOptions) {
		o.synthesisOpts = append(o.synthesisOpts, opts...)
	}
}

// NewEngine opens the store at filePath and assembles the full pipeline.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	knowledgeRepo := badger.NewKnowledgeRepository(backend)
	sessionRepo := badger.NewSessionRepository(backend)
	checkpointRepo := badger.NewCheckpointRepository(backend)

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	orchestrator, err := retrieval.NewOrchestrator(knowledgeRepo, provider, options.retrievalOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	tracker, err := conversation.NewTracker(sessionRepo)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	synthesizer, err := synthesis.NewSynthesizer(provider, options.synthesisOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:        backend,
		knowledgeRepo:  knowledgeRepo,
		sessionRepo:    sessionRepo,
		checkpointRepo: checkpointRepo,
		provider:       provider,
		orchestrator:   orchestrator,
		tracker:        tracker,
		synthesizer:    synthesizer,
		logger:         slog.Default(),
	}, nil
}

// AskResponse is the full product of one conversation turn.
type AskResponse struct {
	SessionId string
	Answer    string
	Actions   []core.Action

	// Celebration is the one-shot engagement message, empty on most turns.
	// Presentation timing (the short delay after the answer) is the
	// caller's concern.
	Celebration string

	Stage     core.Stage
	TurnCount int
	Method    core.RetrievalMethod
	Degraded  bool
}

// Ask handles one inbound question: it serializes the session turn,
// walks the retrieval chain, synthesizes the answer and actions, and
// persists the updated session. An empty sessionId starts a new session;
// the response carries the id to use on the next turn.
func (e *Engine) Ask(ctx context.Context, sessionId, question string) (*AskResponse, error) {
	turn, err := e.tracker.BeginTurn(ctx, sessionId, question)
	if err != nil {
		return nil, err
	}

	outcome, err := e.orchestrator.Retrieve(ctx, question)
	if err != nil {
		turn.Abort()
		return nil, err
	}

	result := e.synthesizer.Synthesize(ctx, question, turn.Session, outcome)

	turnResult, err := turn.Complete(ctx, result.Answer, result.Kinds())
	if err != nil {
		return nil, err
	}

	e.logger.Debug("turn completed",
		"sessionId", turn.Session.Id,
		"turn", turn.Session.TurnCount,
		"method", outcome.Method,
		"stage", turnResult.Stage,
		"degraded", result.Degraded)

	return &AskResponse{
		SessionId:   turn.Session.Id,
		Answer:      result.Answer,
		Actions:     result.Actions,
		Celebration: turnResult.Celebration,
		Stage:       turnResult.Stage,
		TurnCount:   turn.Session.TurnCount,
		Method:      outcome.Method,
		Degraded:    result.Degraded,
	}, nil
}

// PurgeIdleSessions removes sessions idle longer than maxIdle.
func (e *Engine) PurgeIdleSessions(ctx context.Context, maxIdle time.Duration) (int, error) {
	return e.tracker.PurgeIdle(ctx, maxIdle)
}

// KnowledgeRepository exposes the corpus store for seeding and maintenance.
func (e *Engine) KnowledgeRepository() storage.KnowledgeRepository {
	return e.knowledgeRepo
}

// SessionRepository exposes the session store.
func (e *Engine) SessionRepository() storage.SessionRepository {
	return e.sessionRepo
}

// CheckpointRepository exposes the maintenance-job checkpoint store.
func (e *Engine) CheckpointRepository() storage.CheckpointRepository {
	return e.checkpointRepo
}

// NewIngestionPipeline builds a corpus ingestion pipeline sharing this
// engine's store and AI provider.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.knowledgeRepo, e.provider, opts...)
}

// NewReembedder builds a corpus re-embedding job over this engine's
// stores. The embedder is passed explicitly: migrations run with the new
// model, not the one the engine was configured with.
func (e *Engine) NewReembedder(embedder ai.Embedder, config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(e.knowledgeRepo, e.checkpointRepo, embedder, config, progress)
}

func (e *Engine) Close() error {
	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.knowledgeRepo.Close(); err != nil {
		e.logger.Error("error closing knowledge repository", "err", err)
		return err
	}
	if err := e.sessionRepo.Close(); err != nil {
		e.logger.Error("error closing session repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
