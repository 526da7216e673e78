package connection

import (
	"fmt"

	"github.com/ignite/adlens/internal/domain"
)

var allowedTransitions = map[domain.ConnectionStatus][]domain.ConnectionStatus{
	domain.ConnectionPending:      {domain.ConnectionConnected, domain.ConnectionError, domain.ConnectionDisconnected},
	domain.ConnectionConnected:    {domain.ConnectionConnected, domain.ConnectionExpired, domain.ConnectionError, domain.ConnectionDisconnected},
	domain.ConnectionExpired:      {domain.ConnectionConnected, domain.ConnectionDisconnected},
	domain.ConnectionError:        {domain.ConnectionPending, domain.ConnectionDisconnected},
	domain.ConnectionDisconnected: {domain.ConnectionPending, domain.ConnectionDisconnected},
}

// CanTransition reports whether a connection may move from one status to another.
func CanTransition(from, to domain.ConnectionStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transition(c *domain.PlatformConnection, to domain.ConnectionStatus) error {
	if !CanTransition(c.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	c.Status = to
	return nil
}
