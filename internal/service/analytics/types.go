package analytics

import (
	"time"

	"github.com/ignite/adlens/internal/domain"
)

// Row is one campaign-day joined with its campaign.
type Row struct {
	CampaignID   string          `json:"campaign_id"`
	CampaignName string          `json:"campaign_name"`
	Platform     domain.Platform `json:"platform"`
	Date         time.Time       `json:"date"`
	Impressions  int64           `json:"impressions"`
	Clicks       int64           `json:"clicks"`
	Spend        float64         `json:"spend"`
	Conversions  float64         `json:"conversions"`
	Revenue      float64         `json:"revenue"`
	Reach        int64           `json:"reach"`
}

// KPIs are summed counters plus ratios derived from them.
type KPIs struct {
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Spend          float64 `json:"spend"`
	Conversions    float64 `json:"conversions"`
	Revenue        float64 `json:"revenue"`
	Reach          int64   `json:"reach"`
	CTR            float64 `json:"ctr"`
	CPC            float64 `json:"cpc"`
	CPM            float64 `json:"cpm"`
	CPA            float64 `json:"cpa"`
	ConversionRate float64 `json:"conversion_rate"`
	ROAS           float64 `json:"roas"`
}

// PlatformSummary is the KPI block for one platform.
type PlatformSummary struct {
	Platform   domain.Platform `json:"platform"`
	Name       string          `json:"name"`
	SpendShare float64         `json:"spend_share"`
	KPIs
}

// DailyPoint is the KPI block for one day.
type DailyPoint struct {
	Date string `json:"date"`
	KPIs
}

// CampaignSummary is the KPI block for one campaign.
type CampaignSummary struct {
	CampaignID string          `json:"campaign_id"`
	Name       string          `json:"name"`
	Platform   domain.Platform `json:"platform"`
	KPIs
}

// Summary is the aggregated view of a date range.
type Summary struct {
	Range        domain.DateRange  `json:"range"`
	Totals       KPIs              `json:"totals"`
	Platforms    []PlatformSummary `json:"platforms"`
	Daily        []DailyPoint      `json:"daily"`
	TopCampaigns []CampaignSummary `json:"top_campaigns"`
}

// Change is one KPI compared across two periods.
type Change struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	ChangePct float64 `json:"change_pct"`
}

// Comparison holds the period-over-period change of the headline KPIs.
type Comparison struct {
	Impressions Change `json:"impressions"`
	Clicks      Change `json:"clicks"`
	Spend       Change `json:"spend"`
	Conversions Change `json:"conversions"`
	Revenue     Change `json:"revenue"`
	CTR         Change `json:"ctr"`
	CPC         Change `json:"cpc"`
	CPA         Change `json:"cpa"`
	ROAS        Change `json:"roas"`
}

// Dashboard is the payload of the dashboard endpoint.
type Dashboard struct {
	Summary
	Previous    KPIs              `json:"previous"`
	Comparison  Comparison        `json:"comparison"`
	Filter      []domain.Platform `json:"filter,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// CampaignSeries is the zero-filled daily history of one campaign.
type CampaignSeries struct {
	CampaignID string                  `json:"campaign_id"`
	Range      domain.DateRange        `json:"range"`
	Totals     KPIs                    `json:"totals"`
	Daily      []domain.CampaignMetric `json:"daily"`
}
