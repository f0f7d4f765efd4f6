package synthesis

import (
	"context"
	"errors"
	"testing"

	"github.com/seampoint/concierge/ai"
	"github.com/seampoint/concierge/ai/mock"
	"github.com/seampoint/concierge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcomeWith(method core.RetrievalMethod, items ...*core.KnowledgeItem) *core.RetrievalOutcome {
	results := make([]*core.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, &core.SearchResult{Item: item, Similarity: 0.9})
	}
	return &core.RetrievalOutcome{Method: method, Results: results, Threshold: 0.7}
}

func TestNewSynthesizer(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSynthesizer(nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("valid configuration", func(t *testing.T) {
		syn, err := NewSynthesizer(mock.NewMockProvider())
		require.NoError(t, err)
		assert.NotNil(t, syn)
	})
}

func TestSynthesize_GroundedAnswer(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	syn, err := NewSynthesizer(provider)
	require.NoError(t, err)

	session := &core.Session{Id: "s1", TurnCount: 1, Stage: core.StageDiscovery}
	session.AppendTurn(core.RoleUser, "how much does it cost", 0)

	outcome := outcomeWith(core.MethodSemanticFAQ, &core.KnowledgeItem{
		Title: "Pricing", Body: "Plans start at $29 per seat.",
	})

	result := syn.Synthesize(context.Background(), "how much does it cost", session, outcome)
	assert.False(t, result.Degraded)
	assert.Contains(t, result.Answer, "Plans start at $29 per seat.")

	generator := provider.GetMockGenerator()
	assert.Equal(t, 1, generator.CallCount())
	req := generator.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "how much does it cost", req.Question)
	require.Len(t, req.Snippets, 1)
	assert.Equal(t, "Pricing", req.Snippets[0].Title)
	// The current question is carried separately, not replayed as history
	assert.Empty(t, req.History)
}

func TestSynthesize_HistoryExcludesCurrentQuestion(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	syn, err := NewSynthesizer(provider)
	require.NoError(t, err)

	session := &core.Session{Id: "s1", TurnCount: 2, Stage: core.StageDiscovery}
	session.AppendTurn(core.RoleUser, "what is Crewbase", 0)
	session.AppendTurn(core.RoleAssistant, "A work management platform.", 0)
	session.AppendTurn(core.RoleUser, "and pricing?", 0)

	syn.Synthesize(context.Background(), "and pricing?", session, outcomeWith(core.MethodFallback))

	req := provider.GetMockGenerator().LastRequest()
	require.NotNil(t, req)
	require.Len(t, req.History, 2)
	assert.Equal(t, "user", req.History[0].Role)
	assert.Equal(t, "what is Crewbase", req.History[0].Text)
	assert.Equal(t, "assistant", req.History[1].Role)
}

func TestSynthesize_SnippetCap(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	syn, err := NewSynthesizer(provider, WithMaxSnippets(2))
	require.NoError(t, err)

	outcome := outcomeWith(core.MethodSemanticDocument,
		&core.KnowledgeItem{Title: "A", Body: "a"},
		&core.KnowledgeItem{Title: "B", Body: "b"},
		&core.KnowledgeItem{Title: "C", Body: "c"},
	)

	session := &core.Session{Id: "s1", Stage: core.StageDiscovery}
	syn.Synthesize(context.Background(), "question", session, outcome)

	req := provider.GetMockGenerator().LastRequest()
	require.NotNil(t, req)
	assert.Len(t, req.Snippets, 2)
}

func TestSynthesize_DegradedToBestPassage(t *testing.T) {
	generator := mock.NewMockAnswerGenerator()
	generator.GenerateAnswerFunc = func(ctx context.Context, req *ai.GenerationRequest) (string, error) {
		return "", errors.New("model timeout")
	}
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), generator)

	syn, err := NewSynthesizer(provider)
	require.NoError(t, err)

	outcome := outcomeWith(core.MethodSemanticFAQ, &core.KnowledgeItem{
		Title: "Pricing", Body: "Plans start at $29 per seat.",
	})

	session := &core.Session{Id: "s1", Stage: core.StageDiscovery}
	result := syn.Synthesize(context.Background(), "how much", session, outcome)

	// Generation failure never surfaces; the best passage stands in
	assert.True(t, result.Degraded)
	assert.Equal(t, "Plans start at $29 per seat.", result.Answer)
	assert.NotEmpty(t, result.Actions)
}

func TestSynthesize_DegradedToApology(t *testing.T) {
	generator := mock.NewMockAnswerGenerator()
	generator.GenerateAnswerFunc = func(ctx context.Context, req *ai.GenerationRequest) (string, error) {
		return "", errors.New("quota exceeded")
	}
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), generator)

	syn, err := NewSynthesizer(provider)
	require.NoError(t, err)

	session := &core.Session{Id: "s1", Stage: core.StageDiscovery}
	result := syn.Synthesize(context.Background(), "anything", session, outcomeWith(core.MethodFallback))

	assert.True(t, result.Degraded)
	assert.Equal(t, apologyMessage, result.Answer)
}

func TestSynthesize_ActionLookup(t *testing.T) {
	syn, err := NewSynthesizer(mock.NewMockProvider())
	require.NoError(t, err)

	session := &core.Session{Id: "s1", Stage: core.StageDiscovery}
	result := syn.Synthesize(context.Background(), "tell me about the product", session, outcomeWith(core.MethodFallback))

	require.Len(t, result.Actions, 3)
	for _, action := range result.Actions {
		assert.NotEmpty(t, action.Label)
		assert.NotEmpty(t, action.Description)
	}
	assert.Equal(t, []core.ActionKind{
		core.ActionSolutionPreview, core.ActionQuestions, core.ActionProcessAnalysis,
	}, result.Kinds())
}
