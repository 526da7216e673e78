package syncer

import "errors"

// Sentinel errors for the sync service.
var (
	ErrLocked   = errors.New("sync already running for connection")
	ErrLockLost = errors.New("sync lock lost during run")
)
