package knowledge

import "errors"

var (
	ErrNotFound         = errors.New("knowledge entry not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrLLMNotConfigured = errors.New("llm not configured")
)
