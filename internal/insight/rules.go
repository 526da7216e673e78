package insight

import (
	"fmt"
	"sort"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
)

// Rule thresholds.
const (
	minROAS            = 1.0
	minCTR             = 1.0 // percent
	minImpressionsCTR  = 1000
	concentrationShare = 70.0 // percent of spend
	conversionDropPct  = -20.0
	strongROAS         = 3.0
)

// RuleEngine derives insights from fixed thresholds. It needs no external
// service and always returns at least one insight.
type RuleEngine struct{}

// Name identifies the rule engine as a provider.
func (RuleEngine) Name() string { return "rules" }

// Generate evaluates the rules against d.
func (RuleEngine) Generate(d *analytics.Dashboard) []domain.Insight {
	var out []domain.Insight

	if d.Totals.Impressions == 0 && d.Totals.Clicks == 0 && d.Totals.Spend == 0 {
		return []domain.Insight{{
			Title:          "No activity in this period",
			Description:    fmt.Sprintf("No impressions, clicks or spend were recorded for %s.", d.Range),
			Category:       domain.InsightPerformance,
			Priority:       domain.PriorityLow,
			Recommendation: "Check that your platforms are connected and have synced recently.",
		}}
	}

	var spending int
	for _, p := range d.Platforms {
		if p.Spend > 0 {
			spending++
		}
		if p.Spend > 0 && p.ROAS < minROAS {
			out = append(out, domain.Insight{
				Title: fmt.Sprintf("%s is returning less than it spends", p.Name),
				Description: fmt.Sprintf("%s spent %.2f and returned %.2f in revenue, a ROAS of %.2f.",
					p.Name, p.Spend, p.Revenue, p.ROAS),
				Category:       domain.InsightBudget,
				Priority:       domain.PriorityHigh,
				Platform:       p.Platform,
				Recommendation: "Pause or cut budget on the weakest campaigns and review conversion tracking.",
				Impact:         fmt.Sprintf("Up to %.2f of spend at risk", p.Spend-p.Revenue),
			})
		}
		if p.Impressions >= minImpressionsCTR && p.CTR < minCTR {
			out = append(out, domain.Insight{
				Title:          fmt.Sprintf("Low click-through rate on %s", p.Name),
				Description:    fmt.Sprintf("CTR is %.2f%% over %d impressions, below the %.0f%% benchmark.", p.CTR, p.Impressions, minCTR),
				Category:       domain.InsightCreative,
				Priority:       domain.PriorityMedium,
				Platform:       p.Platform,
				Recommendation: "Refresh ad creative and headlines, and tighten targeting to more relevant audiences.",
			})
		}
	}

	if spending >= 2 {
		for _, p := range d.Platforms {
			if p.SpendShare > concentrationShare {
				out = append(out, domain.Insight{
					Title:          fmt.Sprintf("Spend is concentrated on %s", p.Name),
					Description:    fmt.Sprintf("%.1f%% of total spend went to %s.", p.SpendShare, p.Name),
					Category:       domain.InsightBudget,
					Priority:       domain.PriorityMedium,
					Platform:       p.Platform,
					Recommendation: "Test shifting part of the budget to other platforms to reduce dependency and find cheaper conversions.",
				})
			}
		}
	}

	if c := d.Comparison.Conversions; c.Previous > 0 && c.ChangePct < conversionDropPct {
		out = append(out, domain.Insight{
			Title:          "Conversions dropped sharply",
			Description:    fmt.Sprintf("Conversions fell %.1f%% from %.0f to %.0f against the previous period.", -c.ChangePct, c.Previous, c.Current),
			Category:       domain.InsightPerformance,
			Priority:       domain.PriorityHigh,
			Recommendation: "Check landing pages, tracking tags and recent campaign changes for the start of the decline.",
		})
	}

	for _, c := range d.TopCampaigns {
		if c.Spend > 0 && c.ROAS >= strongROAS {
			out = append(out, domain.Insight{
				Title:          fmt.Sprintf("Scale %s", c.Name),
				Description:    fmt.Sprintf("%s returns %.2f for every unit spent.", c.Name, c.ROAS),
				Category:       domain.InsightBudget,
				Priority:       domain.PriorityLow,
				Platform:       c.Platform,
				Recommendation: "Increase its daily budget gradually while watching ROAS.",
			})
			break
		}
	}

	if len(out) == 0 {
		out = append(out, domain.Insight{
			Title:          "Performance is stable",
			Description:    fmt.Sprintf("CTR %.2f%%, CPA %.2f and ROAS %.2f show no warning signs.", d.Totals.CTR, d.Totals.CPA, d.Totals.ROAS),
			Category:       domain.InsightPerformance,
			Priority:       domain.PriorityLow,
			Recommendation: "Keep current budgets and test one new creative per platform.",
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority.Rank() < out[j].Priority.Rank() })
	return out
}
