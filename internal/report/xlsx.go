package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/adlens/internal/domain"
)

// XLSXRenderer writes one sheet per report section.
type XLSXRenderer struct{}

func (XLSXRenderer) Format() domain.ReportFormat { return domain.FormatXLSX }

type sheet struct {
	name   string
	header []interface{}
	rows   [][]interface{}
	widths []float64
}

func (XLSXRenderer) Render(d Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E5E7EB"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	for i, s := range xlsxSheets(d) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("xlsx sheet %s: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("xlsx sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return nil, fmt.Errorf("xlsx sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	for i, w := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func xlsxSheets(d Data) []sheet {
	summary := sheet{
		name:   "Summary",
		header: []interface{}{"Metric", "Current", "Previous", "Change %"},
		widths: []float64{18, 16, 16, 12},
	}
	c := d.Comparison
	for _, kpi := range []struct {
		name      string
		cur, prev float64
		change    float64
	}{
		{"Impressions", c.Impressions.Current, c.Impressions.Previous, c.Impressions.ChangePct},
		{"Clicks", c.Clicks.Current, c.Clicks.Previous, c.Clicks.ChangePct},
		{"Spend (" + d.Currency() + ")", c.Spend.Current, c.Spend.Previous, c.Spend.ChangePct},
		{"Conversions", c.Conversions.Current, c.Conversions.Previous, c.Conversions.ChangePct},
		{"Revenue (" + d.Currency() + ")", c.Revenue.Current, c.Revenue.Previous, c.Revenue.ChangePct},
		{"CTR %", c.CTR.Current, c.CTR.Previous, c.CTR.ChangePct},
		{"CPC", c.CPC.Current, c.CPC.Previous, c.CPC.ChangePct},
		{"CPA", c.CPA.Current, c.CPA.Previous, c.CPA.ChangePct},
		{"ROAS", c.ROAS.Current, c.ROAS.Previous, c.ROAS.ChangePct},
	} {
		summary.rows = append(summary.rows, []interface{}{kpi.name, kpi.cur, kpi.prev, kpi.change})
	}
	summary.rows = append(summary.rows,
		[]interface{}{},
		[]interface{}{"Workspace", d.Workspace.Name},
		[]interface{}{"From", d.Range.From.Format(domain.DateLayout)},
		[]interface{}{"To", d.Range.To.Format(domain.DateLayout)},
	)

	platforms := sheet{
		name:   "Platforms",
		header: []interface{}{"Platform", "Impressions", "Clicks", "CTR %", "Spend", "Spend share %", "Conversions", "Revenue", "CPA", "ROAS"},
		widths: []float64{20, 14, 12, 10, 14, 14, 14, 14, 12, 10},
	}
	for _, p := range d.Summary.Platforms {
		platforms.rows = append(platforms.rows, []interface{}{
			p.Name, p.Impressions, p.Clicks, p.CTR, p.Spend, p.SpendShare, p.Conversions, p.Revenue, p.CPA, p.ROAS,
		})
	}

	daily := sheet{
		name:   "Daily",
		header: []interface{}{"Date", "Impressions", "Clicks", "CTR %", "Spend", "Conversions", "Revenue"},
		widths: []float64{12, 14, 12, 10, 14, 14, 14},
	}
	for _, p := range d.Summary.Daily {
		daily.rows = append(daily.rows, []interface{}{
			p.Date, p.Impressions, p.Clicks, p.CTR, p.Spend, p.Conversions, p.Revenue,
		})
	}

	campaigns := sheet{
		name:   "Campaigns",
		header: []interface{}{"Campaign", "Platform", "Impressions", "Clicks", "CTR %", "Spend", "Conversions", "Revenue", "CPA", "ROAS"},
		widths: []float64{36, 18, 14, 12, 10, 14, 14, 14, 12, 10},
	}
	for _, cs := range d.Campaigns {
		campaigns.rows = append(campaigns.rows, []interface{}{
			cs.Name, string(cs.Platform), cs.Impressions, cs.Clicks, cs.CTR, cs.Spend, cs.Conversions, cs.Revenue, cs.CPA, cs.ROAS,
		})
	}

	insights := sheet{
		name:   "Insights",
		header: []interface{}{"Priority", "Category", "Platform", "Title", "Description", "Recommendation", "Impact"},
		widths: []float64{10, 14, 16, 36, 60, 60, 24},
	}
	for _, in := range d.Insights {
		insights.rows = append(insights.rows, []interface{}{
			string(in.Priority), string(in.Category), string(in.Platform), in.Title, in.Description, in.Recommendation, in.Impact,
		})
	}

	return []sheet{summary, platforms, daily, campaigns, insights}
}
