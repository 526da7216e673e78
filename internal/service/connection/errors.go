package connection

import "errors"

// Sentinel errors for the connection service layer.
var (
	ErrNotFound            = errors.New("connection not found")
	ErrInvalidTransition   = errors.New("invalid connection status transition")
	ErrNotConnected        = errors.New("connection is not connected")
	ErrTokenExpired        = errors.New("connection token expired and could not be refreshed")
	ErrAuthorizationDenied = errors.New("authorization was denied by the provider")
	ErrPlatformDisabled    = errors.New("platform is not configured")
	ErrStateChanged        = errors.New("connection changed concurrently")
)
