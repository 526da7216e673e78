package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
)

// SystemPrompt frames the model as an analyst that answers in JSON only.
const SystemPrompt = `You are a senior performance-marketing analyst reviewing cross-platform advertising and organic metrics for a small business.
Base every statement on the numbers provided. Be specific: name the platform or campaign and quote the figures that support the point.
Respond with a single JSON object and nothing else.`

type promptPayload struct {
	Workspace    string                      `json:"workspace"`
	Currency     string                      `json:"currency"`
	Range        string                      `json:"range"`
	Totals       analytics.KPIs              `json:"totals"`
	Previous     analytics.KPIs              `json:"previous_period"`
	Comparison   analytics.Comparison        `json:"change_vs_previous"`
	Platforms    []analytics.PlatformSummary `json:"platforms"`
	TopCampaigns []analytics.CampaignSummary `json:"top_campaigns"`
}

// BuildPrompt renders the dashboard into the user prompt, asking for at
// most limit insights.
func BuildPrompt(ws *domain.Workspace, d *analytics.Dashboard, limit int) (string, error) {
	payload := promptPayload{
		Workspace:    ws.Name,
		Currency:     ws.Currency,
		Range:        d.Range.String(),
		Totals:       d.Totals,
		Previous:     d.Previous,
		Comparison:   d.Comparison,
		Platforms:    d.Platforms,
		TopCampaigns: d.TopCampaigns,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metrics: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Here are the marketing metrics for the period. Money is in ")
	sb.WriteString(ws.Currency)
	sb.WriteString(", ctr and conversion_rate are percentages, change_pct is the percent change against the previous period of equal length.\n\n")
	sb.Write(data)
	fmt.Fprintf(&sb, `

Give up to %d actionable insights as:
{"insights":[{"title":"...","description":"...","category":"...","priority":"...","platform":"...","recommendation":"...","impact":"..."}]}

Rules:
- category is one of: %s
- priority is one of: high, medium, low
- platform is one of: %s, or empty when the insight spans platforms
- impact is a short estimate of the expected effect
`, limit, joinCategories(), joinPlatforms())
	return sb.String(), nil
}

func joinCategories() string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func joinPlatforms() string {
	all := domain.AllPlatforms()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
