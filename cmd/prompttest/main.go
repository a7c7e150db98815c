package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"cro-backend/internal/extract"
	"cro-backend/internal/llm"
	"cro-backend/internal/llm/anthropic"
	"cro-backend/internal/recommendations"
	"cro-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	snapshotPath := flag.String("snapshot", "", "Path to storefront HTML snapshot")
	domain := flag.String("domain", "demo-store.myshopify.com", "Shop domain")
	promptVersion := flag.String("prompt-version", "v1", "Prompt version")
	outPath := flag.String("out", "", "Path to write processed JSON output (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	conversionRate := flag.Float64("conversion-rate", 2.0, "Conversion rate percent")
	avgOrderValue := flag.Float64("aov", 60, "Average order value in dollars")
	monthlyVisitors := flag.Float64("visitors", 10000, "Monthly visitors")
	mobilePercentage := flag.Float64("mobile", 60, "Mobile traffic percent")
	cartAbandonment := flag.Float64("cart-abandonment", 70, "Cart abandonment percent")
	flag.Parse()

	if strings.TrimSpace(*snapshotPath) == "" {
		exitErr("snapshot path is required")
	}

	page, err := os.ReadFile(*snapshotPath)
	if err != nil {
		exitErr(fmt.Sprintf("read snapshot: %v", err))
	}

	storefrontText, err := extract.ExtractTextFromHTML(context.Background(), string(page))
	if err != nil {
		exitErr(fmt.Sprintf("extract storefront text: %v", err))
	}

	client, err := buildClient(*provider, *model)
	if err != nil {
		exitErr(err.Error())
	}

	metrics := recommendations.StoreMetrics{
		ConversionRate:      *conversionRate,
		AvgOrderValue:       *avgOrderValue,
		MonthlyVisitors:     *monthlyVisitors,
		MobilePercentage:    *mobilePercentage,
		CartAbandonmentRate: *cartAbandonment,
	}

	input := llm.AnalyzeInput{
		ShopDomain:     *domain,
		StorefrontText: storefrontText,
		MetricsSummary: metricsSummary(metrics),
		PromptVersion:  *promptVersion,
	}

	var usage llm.TokenUsage
	ctx := llm.WithTokenUsageCapture(context.Background(), &usage)

	raw, err := client.AnalyzeStore(ctx, input)
	if err != nil {
		exitErr(fmt.Sprintf("llm analyze: %v", err))
	}

	pipeline := recommendations.NewPipeline()
	recs, err := pipeline.Process(raw, metrics)
	if err != nil {
		// One corrective round trip, same as the analysis service.
		raw, err = client.AnalyzeStore(llm.WithFixJSON(ctx, raw), input)
		if err != nil {
			exitErr(fmt.Sprintf("llm analyze retry: %v", err))
		}
		recs, err = pipeline.Process(raw, metrics)
		if err != nil {
			exitErr(fmt.Sprintf("invalid llm output: %v", err))
		}
	}

	total, err := recommendations.CalculateTotalROI(recs, metrics)
	if err != nil {
		exitErr(fmt.Sprintf("total roi: %v", err))
	}

	result := map[string]any{
		"recommendations": recs,
		"totalROI":        total,
		"inputTokens":     usage.InputTokens,
		"outputTokens":    usage.OutputTokens,
	}

	pretty, err := prettyJSON(result)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func buildClient(provider, model string) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "anthropic":
		return anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"), model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func metricsSummary(m recommendations.StoreMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversion rate: %.2f%%\n", m.ConversionRate)
	fmt.Fprintf(&b, "Average order value: $%.2f\n", m.AvgOrderValue)
	fmt.Fprintf(&b, "Monthly visitors: %.0f\n", m.MonthlyVisitors)
	fmt.Fprintf(&b, "Mobile traffic: %.0f%%\n", m.MobilePercentage)
	fmt.Fprintf(&b, "Cart abandonment rate: %.0f%%", m.CartAbandonmentRate)
	return b.String()
}

func prettyJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
