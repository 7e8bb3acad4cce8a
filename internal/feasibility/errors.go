package feasibility

import "errors"

var (
	// ErrNotFound covers missing jobs and jobs owned by another buyer.
	ErrNotFound         = errors.New("feasibility report not found")
	ErrInvalidInput     = errors.New("invalid report input")
	ErrLLMNotConfigured = errors.New("llm not configured")
)

// Failure codes stored on a failed job and shown to the buyer when polling.
const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout        = "LLM_TIMEOUT"
	ErrorCodeLLMSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	ErrorCodeStorage           = "STORAGE_ERROR"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)
