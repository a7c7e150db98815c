package llm

import _ "embed"

var (
	//go:embed prompts/cro_v1.txt
	croPromptV1 string
	//go:embed prompts/cro_v2.txt
	croPromptV2 string
)

// PromptTemplate returns the prompt template text and whether the version was recognized.
func PromptTemplate(version string) (string, bool) {
	switch version {
	case "v2":
		return croPromptV2, true
	case "v1":
		return croPromptV1, true
	default:
		return croPromptV1, false
	}
}
