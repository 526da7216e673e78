package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/insight"
)

// InsightRepo implements insight.Repository against PostgreSQL.
type InsightRepo struct{ db *sql.DB }

// NewInsightRepo creates a Postgres-backed insight repository.
func NewInsightRepo(db *sql.DB) *InsightRepo { return &InsightRepo{db: db} }

const insightColumns = `id, workspace_id, title, description, category, priority, platform,
	recommendation, impact, status, provider, created_at`

func scanInsight(row interface{ Scan(...any) error }) (*domain.Insight, error) {
	in := &domain.Insight{}
	err := row.Scan(
		&in.ID, &in.WorkspaceID, &in.Title, &in.Description, &in.Category, &in.Priority, &in.Platform,
		&in.Recommendation, &in.Impact, &in.Status, &in.Provider, &in.CreatedAt,
	)
	return in, err
}

// ReplaceNew drops unreviewed insights and stores the new batch in one
// transaction. Dismissed and applied insights are kept as history.
func (r *InsightRepo) ReplaceNew(ctx context.Context, workspaceID string, items []domain.Insight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM insights WHERE workspace_id = $1 AND status = 'new'`, workspaceID); err != nil {
		return fmt.Errorf("clear insights: %w", err)
	}
	for i := range items {
		in := &items[i]
		if in.ID == "" {
			in.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO insights (`+insightColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, in.ID, workspaceID, in.Title, in.Description, in.Category, in.Priority, in.Platform,
			in.Recommendation, in.Impact, in.Status, in.Provider, in.CreatedAt); err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
	}
	return tx.Commit()
}

func (r *InsightRepo) List(ctx context.Context, workspaceID string, status domain.InsightStatus) ([]domain.Insight, error) {
	q := `SELECT ` + insightColumns + ` FROM insights WHERE workspace_id = $1`
	args := []interface{}{workspaceID}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC, CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []domain.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func (r *InsightRepo) UpdateStatus(ctx context.Context, workspaceID, id string, status domain.InsightStatus) (*domain.Insight, error) {
	in, err := scanInsight(r.db.QueryRowContext(ctx, `
		UPDATE insights SET status = $1
		WHERE id = $2 AND workspace_id = $3
		RETURNING `+insightColumns, status, id, workspaceID))
	if err == sql.ErrNoRows {
		return nil, insight.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update insight: %w", err)
	}
	return in, nil
}
