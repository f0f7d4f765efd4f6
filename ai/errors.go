package ai

import "errors"

// Provider failure taxonomy. Callers route on these with errors.Is: all
// of them are treated as transient and degrade to the next fallback tier
// rather than surfacing.
var (
	// ErrRateLimited indicates the provider rejected the call for quota
	// or rate-limit reasons.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrTimeout indicates the call exceeded its deadline or was
	// cancelled before the provider answered.
	ErrTimeout = errors.New("provider call timed out")

	// ErrInvalidInput indicates the request was malformed before any
	// provider call was made.
	ErrInvalidInput = errors.New("invalid provider input")

	// ErrContentFiltered indicates the provider refused the content.
	ErrContentFiltered = errors.New("content filtered by provider")

	// ErrMalformedResponse indicates the provider answered with something
	// unusable: no choices, empty output, or unparseable JSON.
	ErrMalformedResponse = errors.New("malformed provider response")
)
