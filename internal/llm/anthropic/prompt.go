package anthropic

import (
	"fmt"
	"log"
	"strings"

	"cro-backend/internal/llm"
)

const (
	systemPromptStrict  = "You are a conversion-rate optimization engine. Respond with JSON only. Output must match the schema exactly."
	systemPromptV2      = "You are a conversion-rate optimization engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// BuildPrompt creates the system and user prompts for a store audit request.
func BuildPrompt(promptVersion, storefrontText, metricsSummary, model string) (system, user string) {
	usedVersion, developer := resolvePromptTemplate(promptVersion, metricsSummary, model)
	system = systemPromptStrict
	if usedVersion == "v2" {
		system = systemPromptV2
	}
	system = system + "\n\n" + developer
	return system, buildUserPrompt(storefrontText, metricsSummary)
}

func buildFixPrompt(promptVersion, model, raw string) (system, user string) {
	_, developer := resolvePromptTemplate(promptVersion, "", model)
	return systemPromptFixJSON + "\n\n" + developer, fixUserPrompt(raw)
}

func resolvePromptTemplate(promptVersion, metricsSummary, model string) (string, string) {
	version := strings.TrimSpace(promptVersion)
	template, ok := llm.PromptTemplate(version)
	usedVersion := version
	if !ok {
		log.Printf("unknown prompt version %q, defaulting to v1", version)
		usedVersion = "v1"
		template, _ = llm.PromptTemplate(usedVersion)
	}

	metricsProvided := "true"
	if strings.TrimSpace(metricsSummary) == "" {
		metricsProvided = "false"
	}

	replacer := strings.NewReplacer(
		"{{PROMPT_VERSION}}", usedVersion,
		"{{MODEL}}", model,
		"{{METRICS_PROVIDED}}", metricsProvided,
	)
	return usedVersion, replacer.Replace(template)
}

func buildUserPrompt(storefrontText, metricsSummary string) string {
	metrics := metricsSummary
	if strings.TrimSpace(metrics) == "" {
		metrics = "N/A"
	}
	return fmt.Sprintf("Storefront Content:\n%s\n\nStore Metrics:\n%s", storefrontText, metrics)
}

func fixUserPrompt(raw string) string {
	return fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", raw)
}
