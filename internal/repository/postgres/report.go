package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/report"
)

// ReportRepo implements report.Repository against PostgreSQL.
type ReportRepo struct{ db *sql.DB }

// NewReportRepo creates a Postgres-backed report repository.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

const reportColumns = `id, workspace_id, name, format, date_from, date_to, status,
	storage_key, size_bytes, COALESCE(created_by::text, ''), created_at`

func scanReport(row interface{ Scan(...any) error }) (*domain.Report, error) {
	rp := &domain.Report{}
	err := row.Scan(
		&rp.ID, &rp.WorkspaceID, &rp.Name, &rp.Format, &rp.From, &rp.To, &rp.Status,
		&rp.StorageKey, &rp.SizeBytes, &rp.CreatedBy, &rp.CreatedAt,
	)
	return rp, err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *ReportRepo) Create(ctx context.Context, rp *domain.Report) error {
	return insertReport(ctx, r.db, rp)
}

// CreateWithBlob inserts the report and its bytes in one transaction.
func (r *ReportRepo) CreateWithBlob(ctx context.Context, rp *domain.Report, data []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertReport(ctx, tx, rp); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO report_blobs (report_id, data) VALUES ($1, $2)`, rp.ID, data); err != nil {
		return fmt.Errorf("save report blob: %w", err)
	}
	return tx.Commit()
}

func insertReport(ctx context.Context, db execer, rp *domain.Report) error {
	var createdBy interface{}
	if rp.CreatedBy != "" {
		createdBy = rp.CreatedBy
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO reports
			(id, workspace_id, name, format, date_from, date_to, status,
			 storage_key, size_bytes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rp.ID, rp.WorkspaceID, rp.Name, rp.Format,
		rp.From.Format(domain.DateLayout), rp.To.Format(domain.DateLayout), rp.Status,
		rp.StorageKey, rp.SizeBytes, createdBy, rp.CreatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, workspaceID, id string) (*domain.Report, error) {
	rp, err := scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1 AND workspace_id = $2`, id, workspaceID))
	if err == sql.ErrNoRows {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rp, nil
}

func (r *ReportRepo) List(ctx context.Context, workspaceID string) ([]domain.Report, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		rp, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, *rp)
	}
	return out, rows.Err()
}

func (r *ReportRepo) Blob(ctx context.Context, reportID string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM report_blobs WHERE report_id = $1`, reportID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report blob: %w", err)
	}
	return data, nil
}
