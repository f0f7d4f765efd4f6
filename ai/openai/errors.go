package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seampoint/concierge/ai"
)

// classifyError maps a transport failure onto the ai package taxonomy so
// callers can route on sentinels instead of provider-specific strings.
// Unrecognized failures pass through unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ai.ErrTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
	case strings.Contains(msg, "content_filter") || strings.Contains(msg, "content filter"):
		return fmt.Errorf("%w: %w", ai.ErrContentFiltered, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return fmt.Errorf("%w: %w", ai.ErrTimeout, err)
	default:
		return err
	}
}
