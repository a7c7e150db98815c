package anthropic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cro-backend/internal/llm"
)

var apiURL = "https://api.anthropic.com/v1/messages"

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Client implements llm.Client using the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new Anthropic client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Anthropic")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("ANTHROPIC_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float32     `json:"temperature,omitempty"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// AnalyzeStore sends a storefront audit request and returns the raw response
// text. The response is not required to be valid JSON; tolerant extraction
// happens downstream, and a fix-JSON retry can be requested via context.
func (c *Client) AnalyzeStore(ctx context.Context, input llm.AnalyzeInput) (string, error) {
	if strings.TrimSpace(c.model) == "" {
		return "", fmt.Errorf("LLM_MODEL is required for Anthropic")
	}

	rawFix, hasFix := llm.FixJSONFromContext(ctx)
	if hasFix {
		return c.analyzeFixJSON(ctx, input, rawFix)
	}

	system, user := BuildPrompt(input.PromptVersion, input.StorefrontText, input.MetricsSummary, c.model)
	if extra, ok := llm.ExtraSystemMessageFromContext(ctx); ok && strings.TrimSpace(extra) != "" {
		system = extra + "\n\n" + system
	}
	raw, usage, err := c.completeOnce(ctx, system, user)
	if err != nil {
		return "", err
	}
	logUsage(c.model, input.PromptVersion, usage)
	return raw, nil
}

func (c *Client) analyzeFixJSON(ctx context.Context, input llm.AnalyzeInput, raw string) (string, error) {
	system, user := buildFixPrompt(input.PromptVersion, c.model, raw)
	fixed, usage, err := c.completeOnce(ctx, system, user)
	if err != nil {
		return "", err
	}
	logUsage(c.model, input.PromptVersion, usage)
	return fixed, nil
}

func (c *Client) completeOnce(ctx context.Context, system, user string) (string, *responseUsage, error) {
	if sink, ok := llm.PromptHashSinkFromContext(ctx); ok && sink != nil {
		*sink = hashPromptString(system + "\n\n" + user)
	}

	temp := float32(0)
	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		System:    system,
		Messages: []apiMessage{
			{Role: "user", Content: user},
		},
		Temperature: &temp,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", nil, fmt.Errorf("anthropic request timeout: %w", err)
		}
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", nil, fmt.Errorf("anthropic http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", nil, fmt.Errorf("anthropic response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", nil, fmt.Errorf("anthropic error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("anthropic http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", nil, fmt.Errorf("anthropic response empty content")
	}
	usage := toUsage(parsed.Usage)
	if sink, ok := llm.TokenUsageSinkFromContext(ctx); ok && sink != nil && usage != nil {
		sink.Add(usage.InputTokens, usage.OutputTokens)
	}
	return content, usage, nil
}

type responseUsage struct {
	InputTokens  int
	OutputTokens int
}

func toUsage(raw *struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}) *responseUsage {
	if raw == nil {
		return nil
	}
	return &responseUsage{
		InputTokens:  raw.InputTokens,
		OutputTokens: raw.OutputTokens,
	}
}

func logUsage(model, promptVersion string, usage *responseUsage) {
	if usage == nil {
		log.Printf("llm response model=%s prompt_version=%s", model, promptVersion)
		return
	}
	log.Printf("llm response model=%s prompt_version=%s input_tokens=%d output_tokens=%d",
		model, promptVersion, usage.InputTokens, usage.OutputTokens)
}

func hashPromptString(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

var _ llm.Client = (*Client)(nil)
