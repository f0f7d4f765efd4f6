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


package synthesis

import (
	"context"
	"log/slog"
	"time"

	"github.com/seampoint/concierge/ai"
	"github.com/seampoint/concierge/core"
)

const (
	defaultMaxSnippets = 5
	defaultTimeout     = 8 * time.Second
)

// apologyMessage is the static recovery answer when generation fails and
// retrieval produced nothing to quote.
const apologyMessage = "I'm sorry, I don't have a good answer for that yet. " +
	"Try asking about Crewbase pricing, onboarding, or integrations, or pick one of the options below."

// Synthesis is the assembled response for one turn: the grounded answer,
// the ranked actions to surface with it, and whether the answer came from
// the local recovery path instead of the generative model.
type Synthesis struct {
	Answer   string
	Actions  []core.Action
	Degraded bool
}

// Kinds returns the action kinds in offer order.
func (s *Synthesis) Kinds() []core.ActionKind {
	kinds := make([]core.ActionKind, 0, len(s.Actions))
	for _, a := range s.Actions {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

// Synthesizer turns a retrieval outcome into a final answer. It makes at
// most one generation call per turn; generation failures degrade to the
// best retrieved passage, or the apology, and never reach the caller as
// errors.
type Synthesizer struct {
	generator   ai.AnswerGenerator
	logger      *slog.Logger
	maxSnippets int
	timeout     time.Duration
}

// Option configures a Synthesizer.
type Option func(*Synthesizer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMaxSnippets caps how many retrieved passages enter the prompt.
// Default is 5.
func WithMaxSnippets(n int) Option {
	return func(s *Synthesizer) error {
		if n > 0 {
			s.maxSnippets = n
		}
		return nil
	}
}

// WithTimeout bounds the generation call. Default is 8s.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) error {
		if d > 0 {
			s.timeout = d
		}
		return nil
	}
}

// NewSynthesizer creates a new answer synthesizer.
func NewSynthesizer(provider ai.AIProvider, opts ...Option) (*Synthesizer, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Synthesizer{
		generator:   provider.AnswerGenerator(),
		logger:      slog.Default(),
		maxSnippets: defaultMaxSnippets,
		timeout:     defaultTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Synthesize produces the answer and action list for one turn. The
// session's history must already include the current question; it is
// replayed to the model minus that trailing turn. Action selection is
// independent of generation and always succeeds.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, session *core.Session, outcome *core.RetrievalOutcome) *Synthesis {
	kinds := selectActionKinds(question, session)
	actions := make([]core.Action, 0, len(kinds))
	for _, kind := range kinds {
		if action, ok := core.ActionFor(kind); ok {
			actions = append(actions, action)
		}
	}

	answer, degraded := s.generateAnswer(ctx, question, session, outcome)

	return &Synthesis{
		Answer:   answer,
		Actions:  actions,
		Degraded: degraded,
	}
}

func (s *Synthesizer) generateAnswer(ctx context.Context, question string, session *core.Session, outcome *core.RetrievalOutcome) (string, bool) {
	req := &ai.GenerationRequest{
		Question: question,
		Snippets: buildSnippets(outcome, s.maxSnippets),
		History:  buildHistory(session, question),
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.generator.GenerateAnswer(ctx, req)
	if err != nil {
		s.logger.Warn("generation failed, using recovery answer",
			"sessionId", session.Id, "method", outcome.Method, "err", err)
		return recoveryAnswer(outcome), true
	}
	return answer, false
}

// recoveryAnswer quotes the best retrieved passage verbatim, or falls
// back to the static apology when there is nothing to quote.
func recoveryAnswer(outcome *core.RetrievalOutcome) string {
	if best := outcome.Best(); best != nil && best.Item != nil && best.Item.Body != "" {
		return best.Item.Body
	}
	return apologyMessage
}

func buildSnippets(outcome *core.RetrievalOutcome, limit int) []ai.Snippet {
	if outcome == nil {
		return nil
	}
	results := outcome.Results
	if len(results) > limit {
		results = results[:limit]
	}
	snippets := make([]ai.Snippet, 0, len(results))
	for _, r := range results {
		if r.Item == nil {
			continue
		}
		snippets = append(snippets, ai.Snippet{Title: r.Item.Title, Body: r.Item.Body})
	}
	return snippets
}

// buildHistory converts the session history for the prompt, dropping the
// trailing user turn when it repeats the current question.
func buildHistory(session *core.Session, question string) []ai.HistoryTurn {
	history := session.History
	if n := len(history); n > 0 && history[n-1].Role == core.RoleUser && history[n-1].Text == question {
		history = history[:n-1]
	}
	turns := make([]ai.HistoryTurn, 0, len(history))
	for _, turn := range history {
		turns = append(turns, ai.HistoryTurn{Role: turn.Role.String(), Text: turn.Text})
	}
	return turns
}
