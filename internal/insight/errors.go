package insight

import "errors"

// Sentinel errors for the insight service.
var (
	ErrNotFound      = errors.New("insight not found")
	ErrInvalidInput  = errors.New("invalid insight input")
	ErrEmptyResponse = errors.New("llm returned no insights")
)
