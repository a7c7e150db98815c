package recommendations

import (
	"errors"
	"testing"
)

func TestExtractBareObject(t *testing.T) {
	raw := `{"recommendations":[{"title":"Move CTA above the fold","impactScore":4}]}`
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
	if objects[0]["title"] != "Move CTA above the fold" {
		t.Fatalf("unexpected title: %v", objects[0]["title"])
	}
}

func TestExtractBareArray(t *testing.T) {
	raw := `[{"title":"Shrink hero to 480px"},{"title":"Add trust badges near $ totals"}]`
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objects))
	}
}

func TestExtractJSONFence(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"recommendations\":[{\"title\":\"Raise AOV threshold to $75\"}]}\n```\nLet me know if you need more."
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
}

func TestExtractPlainFence(t *testing.T) {
	raw := "```\n[{\"title\":\"Compress hero image to 200ms load\"}]\n```"
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
}

func TestExtractSurroundingProse(t *testing.T) {
	raw := `Based on the store audit, I recommend the following changes.

{"recommendations": [{"title": "Reduce checkout steps from 5 to 3"}]}

These should be prioritized by expected impact.`
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
}

func TestExtractBracesInsideStrings(t *testing.T) {
	raw := `{"recommendations":[{"title":"Wrap price in {{money}} template tag","description":"Use {format} tokens"}]}`
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
}

func TestExtractSalvagesFragmentsFromTruncatedOutput(t *testing.T) {
	raw := `{"recommendations":[{"title":"Pin the cart drawer on scroll","impactScore":3},{"title":"Broken one","impactScore":`
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 salvaged object, got %d", len(objects))
	}
	if objects[0]["title"] != "Pin the cart drawer on scroll" {
		t.Fatalf("unexpected salvaged title: %v", objects[0]["title"])
	}
}

func TestExtractSkipsMalformedFragments(t *testing.T) {
	raw := `prefix {"title": "Valid one", "impactScore": 2} middle {"title": "broken  garbage {{{`
	objects, err := ExtractObjects(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
}

func TestExtractFailsWithoutAnyTitledObject(t *testing.T) {
	_, err := ExtractObjects("The store looks great, no JSON here.")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestExtractErrorTruncatesSample(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	_, err := ExtractObjects(string(long))
	if err == nil {
		t.Fatalf("expected error for non-JSON input")
	}
	if len(err.Error()) > 300 {
		t.Fatalf("expected truncated diagnostic, got %d chars", len(err.Error()))
	}
}
