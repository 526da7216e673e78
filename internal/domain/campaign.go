package domain

import (
	"math"
	"time"
)

// Campaign is a platform campaign (or, for organic platforms, a synthetic
// grouping such as a site or profile) whose daily metrics are ingested.
type Campaign struct {
	ID           string    `json:"id" db:"id"`
	WorkspaceID  string    `json:"workspace_id" db:"workspace_id"`
	ConnectionID string    `json:"connection_id" db:"connection_id"`
	Platform     Platform  `json:"platform" db:"platform"`
	ExternalID   string    `json:"external_id" db:"external_id"`
	Name         string    `json:"name" db:"name"`
	Status       string    `json:"status" db:"status"`
	Objective    string    `json:"objective" db:"objective"`
	DailyBudget  float64   `json:"daily_budget" db:"daily_budget"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CampaignMetric is one day of performance for one campaign.
type CampaignMetric struct {
	CampaignID  string             `json:"campaign_id" db:"campaign_id"`
	Date        time.Time          `json:"date" db:"date"`
	Impressions int64              `json:"impressions" db:"impressions"`
	Clicks      int64              `json:"clicks" db:"clicks"`
	Spend       float64            `json:"spend" db:"spend"`
	Conversions float64            `json:"conversions" db:"conversions"`
	Revenue     float64            `json:"revenue" db:"revenue"`
	Reach       int64              `json:"reach" db:"reach"`
	CTR         float64            `json:"ctr" db:"ctr"`
	ROAS        float64            `json:"roas" db:"roas"`
	Extra       map[string]float64 `json:"extra,omitempty" db:"extra"`
}

// Derive recomputes CTR (percent) and ROAS from the raw counters.
func (m *CampaignMetric) Derive() {
	m.CTR = 0
	if m.Impressions > 0 {
		m.CTR = Round2(float64(m.Clicks) / float64(m.Impressions) * 100)
	}
	m.ROAS = 0
	if m.Spend > 0 {
		m.ROAS = Round2(m.Revenue / m.Spend)
	}
}

// Round2 rounds half away from zero to two decimals.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
