package recommendations

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates no parseable recommendation JSON could be
// recovered from the LLM output after every extraction strategy was tried.
var ErrMalformedResponse = errors.New("malformed llm response")

// ErrEmptyRecommendations indicates extraction succeeded but nothing survived
// normalization and validation. Callers may re-prompt rather than fail hard.
var ErrEmptyRecommendations = errors.New("no recommendations produced")

// InvalidMetricsError reports store metrics that would corrupt ROI math.
type InvalidMetricsError struct {
	Field  string
	Reason string
}

func (e *InvalidMetricsError) Error() string {
	return fmt.Sprintf("invalid store metrics: %s %s", e.Field, e.Reason)
}

// MalformedResponseError wraps ErrMalformedResponse with a truncated sample of
// the raw text for diagnostics.
type MalformedResponseError struct {
	Sample string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed llm response: no recommendation objects found in %q", e.Sample)
}

func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

func newMalformedResponseError(raw string) error {
	const sampleLen = 160
	sample := raw
	if len(sample) > sampleLen {
		sample = sample[:sampleLen] + "..."
	}
	return &MalformedResponseError{Sample: sample}
}
