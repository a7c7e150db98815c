package reviews

import "strings"

// Supported reply tones.
const (
	ToneFriendly     = "friendly"
	ToneProfessional = "professional"
	ToneApologetic   = "apologetic"
	ToneEnthusiastic = "enthusiastic"
)

// DefaultTone is used when the merchant does not pick one.
const DefaultTone = ToneFriendly

// ParseTone normalizes and validates a reply tone.
func ParseTone(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return DefaultTone, nil
	}
	switch normalized {
	case ToneFriendly, ToneProfessional, ToneApologetic, ToneEnthusiastic:
		return normalized, nil
	default:
		return "", ErrInvalidTone
	}
}
