package analyses

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrRetryRequired         = errors.New("retry required")
	ErrShopNotReady          = errors.New("shop is missing metrics or snapshot")
	ErrJobQueueNotConfigured = errors.New("job queue not configured")
)

const (
	ErrorCodeValidation           = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout           = "LLM_TIMEOUT"
	ErrorCodeLLMMalformedResponse = "LLM_MALFORMED_RESPONSE"
	ErrorCodeLLMEmptyResult       = "LLM_EMPTY_RESULT"
	ErrorCodeStorage              = "STORAGE_ERROR"
	ErrorCodeInternal             = "INTERNAL_ERROR"
)
