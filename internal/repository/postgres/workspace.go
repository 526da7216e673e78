package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/workspace"
)

// WorkspaceRepo implements workspace.Repository against PostgreSQL.
type WorkspaceRepo struct{ db *sql.DB }

// NewWorkspaceRepo creates a Postgres-backed workspace repository.
func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo { return &WorkspaceRepo{db: db} }

const workspaceColumns = `id, owner_id, name, currency, timezone, created_at, updated_at`

func scanWorkspace(row interface{ Scan(...any) error }) (*domain.Workspace, error) {
	ws := &domain.Workspace{}
	err := row.Scan(&ws.ID, &ws.OwnerID, &ws.Name, &ws.Currency, &ws.Timezone, &ws.CreatedAt, &ws.UpdatedAt)
	return ws, err
}

func (r *WorkspaceRepo) Create(ctx context.Context, ws *domain.Workspace) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workspaces (id, owner_id, name, currency, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ws.ID, ws.OwnerID, ws.Name, ws.Currency, ws.Timezone, ws.CreatedAt, ws.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

func (r *WorkspaceRepo) Get(ctx context.Context, ownerID, id string) (*domain.Workspace, error) {
	ws, err := scanWorkspace(r.db.QueryRowContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, workspace.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

func (r *WorkspaceRepo) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	ws, err := scanWorkspace(r.db.QueryRowContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, workspace.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

func (r *WorkspaceRepo) List(ctx context.Context, ownerID string) ([]domain.Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE owner_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var out []domain.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, *ws)
	}
	return out, rows.Err()
}

func (r *WorkspaceRepo) Update(ctx context.Context, ws *domain.Workspace) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workspaces SET name = $1, currency = $2, timezone = $3, updated_at = $4
		WHERE id = $5 AND owner_id = $6
	`, ws.Name, ws.Currency, ws.Timezone, ws.UpdatedAt, ws.ID, ws.OwnerID)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return workspace.ErrNotFound
	}
	return nil
}

func (r *WorkspaceRepo) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return workspace.ErrNotFound
	}
	return nil
}
