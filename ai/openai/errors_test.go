package openai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/seampoint/concierge/ai"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"deadline exceeded", context.DeadlineExceeded, ai.ErrTimeout},
		{"wrapped cancellation", fmt.Errorf("call failed: %w", context.Canceled), ai.ErrTimeout},
		{"http 429", errors.New("API returned unexpected status code: 429"), ai.ErrRateLimited},
		{"rate limit message", errors.New("rate limit exceeded, retry later"), ai.ErrRateLimited},
		{"quota message", errors.New("insufficient quota for this request"), ai.ErrRateLimited},
		{"content filter", errors.New("response blocked by content_filter"), ai.ErrContentFiltered},
		{"timeout message", errors.New("Client.Timeout exceeded while awaiting headers"), ai.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyError_UnrecognizedPassesThrough(t *testing.T) {
	err := errors.New("connection refused")
	got := classifyError(err)
	assert.Equal(t, err, got)
	for _, sentinel := range []error{ai.ErrRateLimited, ai.ErrTimeout, ai.ErrContentFiltered} {
		assert.NotErrorIs(t, got, sentinel)
	}
}
