package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
	"github.com/lib/pq"
)

// MetricRepo stores daily campaign metrics and serves the aggregation reads.
type MetricRepo struct{ db *sql.DB }

// NewMetricRepo creates a Postgres-backed metric repository.
func NewMetricRepo(db *sql.DB) *MetricRepo { return &MetricRepo{db: db} }

// UpsertDaily writes rows in one transaction, replacing any existing row for
// the same (campaign_id, date).
func (r *MetricRepo) UpsertDaily(ctx context.Context, rows []domain.CampaignMetric) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaign_metrics
			(campaign_id, date, impressions, clicks, spend, conversions, revenue, reach, ctr, roas, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (campaign_id, date) DO UPDATE SET
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			spend = EXCLUDED.spend,
			conversions = EXCLUDED.conversions,
			revenue = EXCLUDED.revenue,
			reach = EXCLUDED.reach,
			ctr = EXCLUDED.ctr,
			roas = EXCLUDED.roas,
			extra = EXCLUDED.extra
	`)
	if err != nil {
		return fmt.Errorf("prepare metric upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range rows {
		extra := []byte("{}")
		if len(m.Extra) > 0 {
			if extra, err = json.Marshal(m.Extra); err != nil {
				return fmt.Errorf("encode extra: %w", err)
			}
		}
		if _, err := stmt.ExecContext(ctx,
			m.CampaignID, m.Date.Format(domain.DateLayout), m.Impressions, m.Clicks, m.Spend,
			m.Conversions, m.Revenue, m.Reach, m.CTR, m.ROAS, string(extra),
		); err != nil {
			return fmt.Errorf("upsert metric %s/%s: %w", m.CampaignID, m.Date.Format(domain.DateLayout), err)
		}
	}
	return tx.Commit()
}

// RowsForRange returns per-campaign daily rows of the workspace inside r,
// optionally restricted to platforms.
func (r *MetricRepo) RowsForRange(ctx context.Context, workspaceID string, dr domain.DateRange, platforms []domain.Platform) ([]analytics.Row, error) {
	q := `
		SELECT c.id, c.name, c.platform, m.date,
		       m.impressions, m.clicks, m.spend, m.conversions, m.revenue, m.reach
		FROM campaign_metrics m
		JOIN campaigns c ON c.id = m.campaign_id
		WHERE c.workspace_id = $1 AND m.date BETWEEN $2 AND $3`
	args := []interface{}{workspaceID, dr.From.Format(domain.DateLayout), dr.To.Format(domain.DateLayout)}
	if len(platforms) > 0 {
		names := make([]string, len(platforms))
		for i, p := range platforms {
			names[i] = string(p)
		}
		q += ` AND c.platform = ANY($4)`
		args = append(args, pq.Array(names))
	}
	q += ` ORDER BY m.date, c.name`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []analytics.Row
	for rows.Next() {
		var row analytics.Row
		if err := rows.Scan(
			&row.CampaignID, &row.CampaignName, &row.Platform, &row.Date,
			&row.Impressions, &row.Clicks, &row.Spend, &row.Conversions, &row.Revenue, &row.Reach,
		); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CampaignRows returns the stored daily metrics of one campaign.
func (r *MetricRepo) CampaignRows(ctx context.Context, workspaceID, campaignID string, dr domain.DateRange) ([]domain.CampaignMetric, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.campaign_id, m.date, m.impressions, m.clicks, m.spend, m.conversions,
		       m.revenue, m.reach, m.ctr, m.roas, m.extra
		FROM campaign_metrics m
		JOIN campaigns c ON c.id = m.campaign_id
		WHERE c.workspace_id = $1 AND m.campaign_id = $2 AND m.date BETWEEN $3 AND $4
		ORDER BY m.date
	`, workspaceID, campaignID, dr.From.Format(domain.DateLayout), dr.To.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query campaign metrics: %w", err)
	}
	defer rows.Close()

	var out []domain.CampaignMetric
	for rows.Next() {
		var m domain.CampaignMetric
		var extra []byte
		if err := rows.Scan(
			&m.CampaignID, &m.Date, &m.Impressions, &m.Clicks, &m.Spend, &m.Conversions,
			&m.Revenue, &m.Reach, &m.CTR, &m.ROAS, &extra,
		); err != nil {
			return nil, fmt.Errorf("scan campaign metric: %w", err)
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &m.Extra); err != nil {
				return nil, fmt.Errorf("decode extra: %w", err)
			}
			if len(m.Extra) == 0 {
				m.Extra = nil
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
