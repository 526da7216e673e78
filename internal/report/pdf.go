package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ignite/adlens/internal/domain"
)

// PDFRenderer lays the report out on A4 pages with an embedded chart.
type PDFRenderer struct{}

func (PDFRenderer) Format() domain.ReportFormat { return domain.FormatPDF }

const (
	pdfLineH   = 6.0
	pdfContent = 180.0
)

func (PDFRenderer) Render(d Data) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(d.Title(), true)
	pdf.SetAuthor("AdLens", true)
	pdf.SetCreationDate(d.GeneratedAt)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(pdfContent, 10, tr(d.Title()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(107, 114, 128)
	period := d.Range.From.Format(domain.DateLayout) + " to " + d.Range.To.Format(domain.DateLayout)
	pdf.CellFormat(pdfContent, pdfLineH, period+"  |  generated "+d.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(31, 41, 55)
	pdf.Ln(4)

	section(pdf, "Headline KPIs")
	kpis := make([][]string, 0, 9)
	for _, k := range d.kpiRows() {
		kpis = append(kpis, []string{k.Label, k.Current, k.Previous, k.Change})
	}
	table(pdf, tr, []string{"Metric", "Current", "Previous", "Change"}, []float64{60, 45, 45, 30}, kpis)

	chart, err := RenderChart(d.Summary.Daily, d.Currency())
	if err != nil {
		return nil, err
	}
	section(pdf, "Daily spend and clicks")
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("daily-chart", opts, bytes.NewReader(chart))
	w := pdfContent
	h := w * float64(ChartHeight) / float64(ChartWidth)
	pdf.ImageOptions("daily-chart", pdf.GetX(), pdf.GetY(), w, h, true, opts, 0, "")
	pdf.Ln(4)

	cur := d.Currency()
	section(pdf, "Platforms")
	if len(d.Summary.Platforms) == 0 {
		muted(pdf, "No platform activity in this period.")
	} else {
		rows := make([][]string, 0, len(d.Summary.Platforms))
		for _, p := range d.Summary.Platforms {
			rows = append(rows, []string{p.Name, Number(p.Impressions), Number(p.Clicks), Percent(p.CTR),
				Money(p.Spend, cur), Percent(p.SpendShare), Ratio(p.ROAS)})
		}
		table(pdf, tr, []string{"Platform", "Impr.", "Clicks", "CTR", "Spend", "Share", "ROAS"},
			[]float64{40, 26, 22, 20, 30, 20, 22}, rows)
	}

	section(pdf, "Campaigns")
	if len(d.Campaigns) == 0 {
		muted(pdf, "No campaigns with activity in this period.")
	} else {
		rows := make([][]string, 0, len(d.Campaigns))
		for _, c := range d.Campaigns {
			rows = append(rows, []string{truncate(c.Name, 38), c.Platform.DisplayName(), Number(c.Clicks),
				Money(c.Spend, cur), Decimal(c.Conversions), Ratio(c.ROAS)})
		}
		table(pdf, tr, []string{"Campaign", "Platform", "Clicks", "Spend", "Conv.", "ROAS"},
			[]float64{66, 32, 20, 26, 18, 18}, rows)
	}

	if len(d.Insights) > 0 {
		section(pdf, "Insights")
		for _, in := range d.Insights {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(pdfContent, 5, tr(fmt.Sprintf("[%s] %s", strings.ToUpper(string(in.Priority)), in.Title)), "", "L", false)
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(pdfContent, 5, tr(in.Description), "", "L", false)
			if in.Recommendation != "" {
				pdf.SetFont("Helvetica", "I", 9)
				pdf.MultiCell(pdfContent, 5, tr("Recommendation: "+in.Recommendation), "", "L", false)
			}
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf report: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pdfContent, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func muted(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(pdfContent, pdfLineH, text, "", 1, "L", false, 0, "")
	pdf.SetTextColor(31, 41, 55)
}

// table draws a header row on a grey fill and left-aligns the first column.
func table(pdf *fpdf.Fpdf, tr func(string) string, header []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(243, 244, 246)
	for i, h := range header {
		pdf.CellFormat(widths[i], pdfLineH, h, "1", 0, align(i), true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for i, v := range row {
			pdf.CellFormat(widths[i], pdfLineH, tr(v), "1", 0, align(i), false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
