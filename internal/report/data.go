package report

import (
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
)

// Data is everything a renderer needs for one report.
type Data struct {
	Workspace   domain.Workspace            `json:"workspace"`
	Range       domain.DateRange            `json:"range"`
	Summary     analytics.Summary           `json:"summary"`
	Comparison  analytics.Comparison        `json:"comparison"`
	Campaigns   []analytics.CampaignSummary `json:"campaigns"`
	Insights    []domain.Insight            `json:"insights"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// Title is the heading used by every format.
func (d Data) Title() string {
	name := d.Workspace.Name
	if name == "" {
		name = "AdLens"
	}
	return name + " performance report"
}

// Currency returns the workspace currency, USD when unset.
func (d Data) Currency() string {
	if d.Workspace.Currency == "" {
		return "USD"
	}
	return d.Workspace.Currency
}

// kpiRow is one line of the headline KPI table shared by CSV, XLSX and PDF.
type kpiRow struct {
	Label    string
	Current  string
	Previous string
	Change   string
}

func (d Data) kpiRows() []kpiRow {
	cur := d.Currency()
	c := d.Comparison
	counts := func(label string, ch analytics.Change) kpiRow {
		return kpiRow{label, Number(int64(ch.Current)), Number(int64(ch.Previous)), SignedPercent(ch.ChangePct)}
	}
	money := func(label string, ch analytics.Change) kpiRow {
		return kpiRow{label, Money(ch.Current, cur), Money(ch.Previous, cur), SignedPercent(ch.ChangePct)}
	}
	return []kpiRow{
		counts("Impressions", c.Impressions),
		counts("Clicks", c.Clicks),
		money("Spend", c.Spend),
		{"Conversions", Decimal(c.Conversions.Current), Decimal(c.Conversions.Previous), SignedPercent(c.Conversions.ChangePct)},
		money("Revenue", c.Revenue),
		{"CTR", Percent(c.CTR.Current), Percent(c.CTR.Previous), SignedPercent(c.CTR.ChangePct)},
		money("CPC", c.CPC),
		money("CPA", c.CPA),
		{"ROAS", Ratio(c.ROAS.Current), Ratio(c.ROAS.Previous), SignedPercent(c.ROAS.ChangePct)},
	}
}
