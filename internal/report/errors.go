package report

import "errors"

// Sentinel errors for the report service.
var (
	ErrNotFound          = errors.New("report not found")
	ErrInvalidInput      = errors.New("invalid report input")
	ErrUnsupportedFormat = errors.New("unsupported report format")
	ErrMailerDisabled    = errors.New("report e-mail is not configured")
)
