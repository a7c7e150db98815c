package recommendations

import (
	"encoding/json"
	"strings"
)

// ExtractObjects recovers recommendation objects from free-form LLM output.
// It tries, in order: a fenced code block, a bracket-balanced JSON span, and
// per-fragment salvage of title-bearing objects. Fragments that fail to parse
// during salvage are skipped, never propagated; the call fails only when no
// strategy yields at least one object with a title.
func ExtractObjects(raw string) ([]map[string]any, error) {
	candidate := extractCandidate(raw)
	if candidate != "" {
		if objects, ok := decodeObjects(candidate); ok {
			return objects, nil
		}
	}

	objects := salvageFragments(raw)
	if len(objects) == 0 {
		return nil, newMalformedResponseError(raw)
	}
	return objects, nil
}

// extractCandidate returns the most likely JSON span in the text, or "".
func extractCandidate(raw string) string {
	if block := fencedBlock(raw); block != "" {
		return block
	}
	return balancedSpan(raw, 0)
}

// fencedBlock returns the contents of the first ``` or ```json fence.
func fencedBlock(raw string) string {
	start := strings.Index(raw, "```")
	if start < 0 {
		return ""
	}
	rest := raw[start+3:]
	if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
		tag := strings.TrimSpace(rest[:newline])
		if tag == "" || strings.EqualFold(tag, "json") {
			rest = rest[newline+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// balancedSpan finds the first '{' or '[' at or after offset and returns the
// span up to the matching close bracket. The scan tracks string-literal state
// and escaped quotes so braces inside titles or descriptions do not confuse
// the depth counter.
func balancedSpan(raw string, offset int) string {
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i := offset; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{', '[':
			if start < 0 {
				start = i
			}
			depth++
		case '}', ']':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

// decodeObjects parses a candidate span, accepting either a top-level object
// with a "recommendations" array, a bare array, or a single recommendation.
func decodeObjects(candidate string) ([]map[string]any, bool) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return nil, false
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []map[string]any
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, false
		}
		titled := withTitles(list)
		return titled, len(titled) > 0
	}

	var top map[string]any
	if err := json.Unmarshal([]byte(trimmed), &top); err != nil {
		return nil, false
	}
	if recs, ok := top["recommendations"]; ok {
		// An explicit recommendations array is authoritative even when empty;
		// the caller distinguishes an empty set from a parse failure.
		return withTitles(objectSlice(recs)), true
	}
	titled := withTitles([]map[string]any{top})
	return titled, len(titled) > 0
}

// salvageFragments scans the raw text for individual {...} spans that contain
// a "title" key and parses each independently, discarding failures.
func salvageFragments(raw string) []map[string]any {
	out := make([]map[string]any, 0, 4)
	offset := 0
	for offset < len(raw) {
		next := strings.IndexByte(raw[offset:], '{')
		if next < 0 {
			break
		}
		span := balancedSpan(raw, offset+next)
		if span == "" {
			offset += next + 1
			continue
		}
		if strings.Contains(span, `"title"`) {
			var obj map[string]any
			if err := json.Unmarshal([]byte(span), &obj); err == nil && hasTitle(obj) {
				out = append(out, obj)
				offset += next + len(span)
				continue
			}
		}
		offset += next + 1
	}
	return out
}

func objectSlice(value any) []map[string]any {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func withTitles(list []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, obj := range list {
		if hasTitle(obj) {
			out = append(out, obj)
		}
	}
	return out
}

func hasTitle(obj map[string]any) bool {
	title, ok := obj["title"].(string)
	return ok && strings.TrimSpace(title) != ""
}
