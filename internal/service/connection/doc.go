// Package connection manages the OAuth lifecycle of platform connections:
// starting authorization, completing the provider callback, keeping tokens
// fresh and recording sync outcomes. Status changes go through the
// transition table in transitions.go.
package connection
