package anthropic

import "testing"

func TestPromptHashDeterministic(t *testing.T) {
	system, user := BuildPrompt("v2", "storefront text", "conversion rate 1.8%", "claude-sonnet")
	hash1 := hashPromptString(system + "\n\n" + user)
	hash2 := hashPromptString(system + "\n\n" + user)
	if hash1 != hash2 {
		t.Fatalf("expected deterministic prompt hash, got %q and %q", hash1, hash2)
	}

	systemAlt, userAlt := BuildPrompt("v2", "storefront text", "conversion rate 2.4%", "claude-sonnet")
	hashAlt := hashPromptString(systemAlt + "\n\n" + userAlt)
	if hash1 == hashAlt {
		t.Fatalf("expected prompt hash to change when input changes")
	}
}

func TestBuildPromptFallsBackToV1(t *testing.T) {
	system, _ := BuildPrompt("v99", "text", "", "claude-sonnet")
	if system == "" {
		t.Fatalf("expected prompt for unknown version")
	}
}
