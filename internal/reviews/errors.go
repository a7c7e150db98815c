package reviews

import "errors"

var (
	// ErrNotFound indicates an entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTone indicates an unsupported reply tone.
	ErrInvalidTone = errors.New("invalid tone")

	// ErrInvalidLLMOutput indicates the model response could not be used.
	ErrInvalidLLMOutput = errors.New("invalid llm output")
)
