package llm

import _ "embed"

var (
	//go:embed prompts/review_reply_v1.txt
	reviewReplyPromptV1 string
)

// ReviewReplyPromptV1 returns the prompt used to generate review replies.
func ReviewReplyPromptV1() string {
	return reviewReplyPromptV1
}
