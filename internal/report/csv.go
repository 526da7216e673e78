package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
)

// CSVRenderer writes the report as one CSV file with four sections
// separated by blank lines: summary, platforms, daily and campaigns.
type CSVRenderer struct{}

func (CSVRenderer) Format() domain.ReportFormat { return domain.FormatCSV }

func (CSVRenderer) Render(d Data) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"# " + d.Title()},
		{"# Period", d.Range.From.Format(domain.DateLayout), d.Range.To.Format(domain.DateLayout)},
		{"# Currency", d.Currency()},
		{},
		{"Section", "Metric", "Current", "Previous", "Change %"},
	}
	c := d.Comparison
	for _, kpi := range []struct {
		name string
		ch   analytics.Change
	}{
		{"impressions", c.Impressions},
		{"clicks", c.Clicks},
		{"spend", c.Spend},
		{"conversions", c.Conversions},
		{"revenue", c.Revenue},
		{"ctr", c.CTR},
		{"cpc", c.CPC},
		{"cpa", c.CPA},
		{"roas", c.ROAS},
	} {
		records = append(records, []string{"summary", kpi.name, num(kpi.ch.Current), num(kpi.ch.Previous), num(kpi.ch.ChangePct)})
	}

	records = append(records, []string{},
		[]string{"Section", "Platform", "Impressions", "Clicks", "CTR", "Spend", "Spend share", "Conversions", "Revenue", "CPA", "ROAS"})
	for _, p := range d.Summary.Platforms {
		records = append(records, []string{"platform", string(p.Platform),
			int64s(p.Impressions), int64s(p.Clicks), num(p.CTR), num(p.Spend), num(p.SpendShare),
			num(p.Conversions), num(p.Revenue), num(p.CPA), num(p.ROAS)})
	}

	records = append(records, []string{},
		[]string{"Section", "Date", "Impressions", "Clicks", "CTR", "Spend", "Conversions", "Revenue"})
	for _, p := range d.Summary.Daily {
		records = append(records, []string{"daily", p.Date,
			int64s(p.Impressions), int64s(p.Clicks), num(p.CTR), num(p.Spend), num(p.Conversions), num(p.Revenue)})
	}

	records = append(records, []string{},
		[]string{"Section", "Campaign ID", "Campaign", "Platform", "Impressions", "Clicks", "CTR", "Spend", "Conversions", "Revenue", "CPA", "ROAS"})
	for _, cs := range d.Campaigns {
		records = append(records, []string{"campaign", cs.CampaignID, cs.Name, string(cs.Platform),
			int64s(cs.Impressions), int64s(cs.Clicks), num(cs.CTR), num(cs.Spend),
			num(cs.Conversions), num(cs.Revenue), num(cs.CPA), num(cs.ROAS)})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv report: %w", err)
	}
	return buf.Bytes(), nil
}

// num keeps CSV values machine readable: no grouping, no symbols.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func int64s(n int64) string {
	return strconv.FormatInt(n, 10)
}
