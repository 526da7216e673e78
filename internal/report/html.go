package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/osteele/liquid"

	"github.com/ignite/adlens/internal/domain"
)

//go:embed templates/report.html.liquid
var htmlTemplate string

// HTMLRenderer renders the report as a standalone HTML page.
type HTMLRenderer struct {
	tpl *liquid.Template
}

// NewHTMLRenderer compiles the report template with the report filters.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)
	tpl, err := engine.ParseString(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &HTMLRenderer{tpl: tpl}, nil
}

func (*HTMLRenderer) Format() domain.ReportFormat { return domain.FormatHTML }

func (h *HTMLRenderer) Render(d Data) ([]byte, error) {
	bindings, err := htmlBindings(d)
	if err != nil {
		return nil, err
	}
	out, serr := h.tpl.Render(bindings)
	if serr != nil {
		return nil, fmt.Errorf("render html report: %w", serr)
	}
	return out, nil
}

// htmlBindings exposes Data to the template under its JSON names so the
// template reads the same keys as the API.
func htmlBindings(d Data) (liquid.Bindings, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode report data: %w", err)
	}
	var b liquid.Bindings
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode report data: %w", err)
	}
	b["title"] = d.Title()
	b["currency"] = d.Currency()
	b["period_from"] = d.Range.From.Format(domain.DateLayout)
	b["period_to"] = d.Range.To.Format(domain.DateLayout)
	b["generated"] = d.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC")
	b["has_platforms"] = len(d.Summary.Platforms) > 0
	b["has_campaigns"] = len(d.Campaigns) > 0
	b["has_insights"] = len(d.Insights) > 0
	return b, nil
}

func registerFilters(engine *liquid.Engine) {
	// {{ spend | money: currency }}
	engine.RegisterFilter("money", func(value interface{}, currency string) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return Money(f, currency)
	})

	// {{ ctr | pct }}
	engine.RegisterFilter("pct", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return Percent(f)
	})

	engine.RegisterFilter("change", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return SignedPercent(f)
	})

	// {{ clicks | number }}; fractional conversions keep two decimals
	engine.RegisterFilter("number", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		if f == math.Trunc(f) {
			return Number(int64(f))
		}
		return Decimal(f)
	})

	engine.RegisterFilter("ratio", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return Ratio(f)
	})

	// CSS class for a change value
	engine.RegisterFilter("trend", func(value interface{}) string {
		f, _ := toFloat(value)
		switch {
		case f > 0:
			return "up"
		case f < 0:
			return "down"
		}
		return ""
	})
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case nil:
		return 0, true
	}
	return 0, false
}
