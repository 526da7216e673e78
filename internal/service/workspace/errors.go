package workspace

import "errors"

// Sentinel errors for the workspace service layer.
var (
	ErrNotFound     = errors.New("workspace not found")
	ErrInvalidInput = errors.New("invalid workspace input")
)
