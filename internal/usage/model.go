package usage

import "time"

// Usage represents a merchant's plan consumption snapshot for the current
// billing period, including LLM token totals.
type Usage struct {
	Plan         string    `json:"plan"`
	Limit        int       `json:"limit"`
	Used         int       `json:"used"`
	InputTokens  int64     `json:"inputTokens"`
	OutputTokens int64     `json:"outputTokens"`
	ResetsAt     time.Time `json:"resetsAt"`
}
