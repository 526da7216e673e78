package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/lib/pq"
)

// ConnectionRepo implements connection.Repository against PostgreSQL.
type ConnectionRepo struct{ db *sql.DB }

// NewConnectionRepo creates a Postgres-backed connection repository.
func NewConnectionRepo(db *sql.DB) *ConnectionRepo { return &ConnectionRepo{db: db} }

const connectionColumns = `id, workspace_id, platform, status, account_id, account_name,
	access_token, refresh_token, token_expiry, scopes, last_synced_at, last_error,
	created_at, updated_at`

func scanConnection(row interface{ Scan(...any) error }) (*domain.PlatformConnection, error) {
	c := &domain.PlatformConnection{}
	var expiry, synced sql.NullTime
	err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.Platform, &c.Status, &c.AccountID, &c.AccountName,
		&c.AccessToken, &c.RefreshToken, &expiry, pq.Array(&c.Scopes), &synced, &c.LastError,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		c.TokenExpiry = &t
	}
	if synced.Valid {
		t := synced.Time
		c.LastSyncedAt = &t
	}
	return c, nil
}

func (r *ConnectionRepo) one(ctx context.Context, q string, args ...any) (*domain.PlatformConnection, error) {
	c, err := scanConnection(r.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, connection.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return c, nil
}

func (r *ConnectionRepo) many(ctx context.Context, q string, args ...any) ([]domain.PlatformConnection, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var out []domain.PlatformConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ConnectionRepo) Create(ctx context.Context, c *domain.PlatformConnection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO platform_connections
			(id, workspace_id, platform, status, account_id, account_name,
			 access_token, refresh_token, token_expiry, scopes, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, c.ID, c.WorkspaceID, c.Platform, c.Status, c.AccountID, c.AccountName,
		c.AccessToken, c.RefreshToken, c.TokenExpiry, pq.Array(nonNil(c.Scopes)), c.LastError,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}
	return nil
}

func (r *ConnectionRepo) Get(ctx context.Context, workspaceID, id string) (*domain.PlatformConnection, error) {
	return r.one(ctx, `SELECT `+connectionColumns+` FROM platform_connections
		WHERE id = $1 AND workspace_id = $2`, id, workspaceID)
}

func (r *ConnectionRepo) GetByID(ctx context.Context, id string) (*domain.PlatformConnection, error) {
	return r.one(ctx, `SELECT `+connectionColumns+` FROM platform_connections WHERE id = $1`, id)
}

func (r *ConnectionRepo) FindByPlatform(ctx context.Context, workspaceID string, p domain.Platform) (*domain.PlatformConnection, error) {
	return r.one(ctx, `SELECT `+connectionColumns+` FROM platform_connections
		WHERE workspace_id = $1 AND platform = $2
		ORDER BY created_at LIMIT 1`, workspaceID, p)
}

func (r *ConnectionRepo) List(ctx context.Context, workspaceID string) ([]domain.PlatformConnection, error) {
	return r.many(ctx, `SELECT `+connectionColumns+` FROM platform_connections
		WHERE workspace_id = $1 ORDER BY platform`, workspaceID)
}

// ListDue returns connected connections never synced or last synced before
// syncedBefore, oldest first.
func (r *ConnectionRepo) ListDue(ctx context.Context, syncedBefore time.Time, limit int) ([]domain.PlatformConnection, error) {
	return r.many(ctx, `SELECT `+connectionColumns+` FROM platform_connections
		WHERE status = 'connected' AND (last_synced_at IS NULL OR last_synced_at < $1)
		ORDER BY last_synced_at NULLS FIRST
		LIMIT $2`, syncedBefore, limit)
}

// Save writes c only while the stored status is still expect.
func (r *ConnectionRepo) Save(ctx context.Context, c *domain.PlatformConnection, expect domain.ConnectionStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE platform_connections SET
			status = $1, account_id = $2, account_name = $3,
			access_token = $4, refresh_token = $5, token_expiry = $6, scopes = $7,
			last_synced_at = $8, last_error = $9, updated_at = $10
		WHERE id = $11 AND status = $12
	`, c.Status, c.AccountID, c.AccountName,
		c.AccessToken, c.RefreshToken, c.TokenExpiry, pq.Array(nonNil(c.Scopes)),
		c.LastSyncedAt, c.LastError, c.UpdatedAt, c.ID, expect)
	if err != nil {
		return fmt.Errorf("save connection: %w", err)
	}
	return r.checkUpdated(ctx, res, c.ID)
}

// SaveTokens stores refreshed credentials. The refresh token guard keeps a
// refresh that raced a re-authorization from overwriting the newer grant.
func (r *ConnectionRepo) SaveTokens(ctx context.Context, c *domain.PlatformConnection, oldRefresh string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE platform_connections SET
			status = $1, access_token = $2, refresh_token = $3, token_expiry = $4,
			scopes = $5, last_error = $6, updated_at = $7
		WHERE id = $8 AND status = 'connected' AND refresh_token = $9
	`, c.Status, c.AccessToken, c.RefreshToken, c.TokenExpiry,
		pq.Array(nonNil(c.Scopes)), c.LastError, c.UpdatedAt, c.ID, oldRefresh)
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return r.checkUpdated(ctx, res, c.ID)
}

// SaveSyncState records a sync outcome on a connected row.
func (r *ConnectionRepo) SaveSyncState(ctx context.Context, c *domain.PlatformConnection) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE platform_connections SET
			status = $1, last_synced_at = COALESCE($2, last_synced_at),
			last_error = $3, updated_at = $4
		WHERE id = $5 AND status = 'connected'
	`, c.Status, c.LastSyncedAt, c.LastError, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return r.checkUpdated(ctx, res, c.ID)
}

func (r *ConnectionRepo) SetAuthNonce(ctx context.Context, id, nonce string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE platform_connections SET auth_nonce = $1 WHERE id = $2`, nonce, id)
	if err != nil {
		return fmt.Errorf("set auth nonce: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return connection.ErrNotFound
	}
	return nil
}

// ConsumeAuthNonce clears the nonce in the same statement that checks it, so
// two callbacks carrying one state cannot both succeed.
func (r *ConnectionRepo) ConsumeAuthNonce(ctx context.Context, id, nonce string) (bool, error) {
	if nonce == "" {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE platform_connections SET auth_nonce = ''
		WHERE id = $1 AND auth_nonce = $2
	`, id, nonce)
	if err != nil {
		return false, fmt.Errorf("consume auth nonce: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// checkUpdated maps a guarded UPDATE that touched nothing to ErrNotFound or
// ErrStateChanged.
func (r *ConnectionRepo) checkUpdated(ctx context.Context, res sql.Result, id string) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM platform_connections WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check connection: %w", err)
	}
	if !exists {
		return connection.ErrNotFound
	}
	return connection.ErrStateChanged
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
