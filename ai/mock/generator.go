package mock

import (
	"context"
	"fmt"

	"github.com/seampoint/concierge/ai"
)

// MockAnswerGenerator is a test double for ai.AnswerGenerator.
// It allows custom behavior injection via function fields.
type MockAnswerGenerator struct {
	// GenerateAnswerFunc is called by GenerateAnswer if set.
	// If nil, uses default deterministic behavior.
	GenerateAnswerFunc func(ctx context.Context, req *ai.GenerationRequest) (string, error)

	callCount int
	lastReq   *ai.GenerationRequest
}

// NewMockAnswerGenerator creates a mock generator with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockAnswerGenerator() *MockAnswerGenerator {
	return &MockAnswerGenerator{}
}

// GenerateAnswer returns a deterministic answer derived from the request.
// The default echoes the first snippet so grounding can be asserted in tests.
func (m *MockAnswerGenerator) GenerateAnswer(ctx context.Context, req *ai.GenerationRequest) (string, error) {
	m.callCount++
	m.lastReq = req

	if m.GenerateAnswerFunc != nil {
		return m.GenerateAnswerFunc(ctx, req)
	}

	if req == nil {
		return "", fmt.Errorf("nil generation request")
	}
	if len(req.Snippets) == 0 {
		return fmt.Sprintf("I don't have material on %q yet.", req.Question), nil
	}
	return fmt.Sprintf("Based on %q: %s", req.Snippets[0].Title, req.Snippets[0].Body), nil
}

// CallCount returns the number of times GenerateAnswer was called.
func (m *MockAnswerGenerator) CallCount() int {
	return m.callCount
}

// LastRequest returns the most recent request, for test assertions.
func (m *MockAnswerGenerator) LastRequest() *ai.GenerationRequest {
	return m.lastReq
}

// Reset clears the call count and injected behavior.
func (m *MockAnswerGenerator) Reset() {
	m.callCount = 0
	m.lastReq = nil
	m.GenerateAnswerFunc = nil
}
