// Package workspace manages user-owned workspaces.
//
// Every read and write is scoped by owner: a workspace that belongs to
// another user is reported as ErrNotFound, never as forbidden.
package workspace
