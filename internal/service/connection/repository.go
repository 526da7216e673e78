package connection

import (
	"context"
	"time"

	"github.com/ignite/adlens/internal/domain"
)

// Repository defines the data access contract for platform connections.
type Repository interface {
	// Create inserts a connection. The caller assigns the ID.
	Create(ctx context.Context, c *domain.PlatformConnection) error

	// Get returns a connection inside workspaceID. Returns ErrNotFound otherwise.
	Get(ctx context.Context, workspaceID, id string) (*domain.PlatformConnection, error)

	// GetByID returns a connection without a workspace check.
	GetByID(ctx context.Context, id string) (*domain.PlatformConnection, error)

	// FindByPlatform returns the most recently updated connection for the
	// workspace and platform. Returns ErrNotFound when there is none.
	FindByPlatform(ctx context.Context, workspaceID string, p domain.Platform) (*domain.PlatformConnection, error)

	// List returns the workspace's connections ordered by platform.
	List(ctx context.Context, workspaceID string) ([]domain.PlatformConnection, error)

	// Save persists the status, account, token and sync fields of c when
	// the stored status still equals expect. It returns ErrStateChanged when
	// another writer moved the connection first.
	Save(ctx context.Context, c *domain.PlatformConnection, expect domain.ConnectionStatus) error

	// SaveTokens writes the status, tokens, scopes and last error of a
	// connected row whose refresh token is still oldRefresh.
	SaveTokens(ctx context.Context, c *domain.PlatformConnection, oldRefresh string) error

	// SaveSyncState writes the status, last sync time and last error of a
	// connected row. Tokens are left alone.
	SaveSyncState(ctx context.Context, c *domain.PlatformConnection) error

	// SetAuthNonce records the nonce of the authorization started last,
	// replacing any earlier one.
	SetAuthNonce(ctx context.Context, id, nonce string) error

	// ConsumeAuthNonce clears nonce if it is the stored one and reports
	// whether it was.
	ConsumeAuthNonce(ctx context.Context, id, nonce string) (bool, error)

	// ListDue returns connected connections never synced or last synced
	// before the cutoff, oldest first.
	ListDue(ctx context.Context, syncedBefore time.Time, limit int) ([]domain.PlatformConnection, error)
}
