package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers for storefront analysis. The raw response
// text is returned as-is; tolerant JSON extraction happens downstream.
type Client interface {
	AnalyzeStore(ctx context.Context, input AnalyzeInput) (string, error)
}

// PromptClient abstracts single-prompt completions (review replies).
type PromptClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AnalyzeInput captures the inputs needed for a store analysis request.
type AnalyzeInput struct {
	ShopDomain     string
	StorefrontText string
	MetricsSummary string
	PromptVersion  string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

type extraSystemKey struct{}

// WithExtraSystemMessage returns a context carrying an additional system
// message to prepend on the next request.
func WithExtraSystemMessage(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, extraSystemKey{}, msg)
}

// ExtraSystemMessageFromContext returns the extra system message, if any.
func ExtraSystemMessageFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(extraSystemKey{})
	msg, ok := val.(string)
	return msg, ok
}

type promptHashKey struct{}

// WithPromptHashCapture returns a context that captures the hash of the final
// prompt into sink.
func WithPromptHashCapture(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, promptHashKey{}, sink)
}

// PromptHashSinkFromContext returns the prompt hash sink, if any.
func PromptHashSinkFromContext(ctx context.Context) (*string, bool) {
	val := ctx.Value(promptHashKey{})
	sink, ok := val.(*string)
	return sink, ok
}

// TokenUsage accumulates token counts across the requests made under one
// capture context. Callers own the instance; clients only add to it.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates one request's token counts.
func (u *TokenUsage) Add(inputTokens, outputTokens int) {
	u.InputTokens += inputTokens
	u.OutputTokens += outputTokens
}

type tokenUsageKey struct{}

// WithTokenUsageCapture returns a context that accumulates token counts of
// every request made under it into sink.
func WithTokenUsageCapture(ctx context.Context, sink *TokenUsage) context.Context {
	return context.WithValue(ctx, tokenUsageKey{}, sink)
}

// TokenUsageSinkFromContext returns the token usage sink, if any.
func TokenUsageSinkFromContext(ctx context.Context) (*TokenUsage, bool) {
	val := ctx.Value(tokenUsageKey{})
	sink, ok := val.(*TokenUsage)
	return sink, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// AnalyzeStore returns ErrNotImplemented.
func (PlaceholderClient) AnalyzeStore(ctx context.Context, input AnalyzeInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}
