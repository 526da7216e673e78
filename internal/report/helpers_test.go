package report

import (
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/service/analytics"
)

var testRange = domain.NewDateRange(
	time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
)

func sampleData() Data {
	google := analytics.KPIs{Impressions: 12000, Clicks: 240, Spend: 1500.5, Conversions: 12, Revenue: 4200, CTR: 2, ROAS: 2.8}
	meta := analytics.KPIs{Impressions: 8000, Clicks: 60, Spend: 500, Conversions: 3, Revenue: 300, CTR: 0.75, ROAS: 0.6}
	return Data{
		Workspace: domain.Workspace{ID: "ws-1", Name: "Acme <Shoes>", Currency: "USD"},
		Range:     testRange,
		Summary: analytics.Summary{
			Range:  testRange,
			Totals: analytics.KPIs{Impressions: 20000, Clicks: 300, Spend: 2000.5, Conversions: 15, Revenue: 4500},
			Platforms: []analytics.PlatformSummary{
				{Platform: domain.PlatformGoogleAds, Name: "Google Ads", SpendShare: 75, KPIs: google},
				{Platform: domain.PlatformFacebook, Name: "Facebook", SpendShare: 25, KPIs: meta},
			},
			Daily: []analytics.DailyPoint{
				{Date: "2024-03-01", KPIs: analytics.KPIs{Clicks: 100, Spend: 700}},
				{Date: "2024-03-02", KPIs: analytics.KPIs{Clicks: 120, Spend: 800.5}},
				{Date: "2024-03-03", KPIs: analytics.KPIs{Clicks: 80, Spend: 500}},
			},
		},
		Comparison: analytics.Comparison{
			Spend:  analytics.Change{Current: 2000.5, Previous: 1000, ChangePct: 100.05},
			Clicks: analytics.Change{Current: 300, Previous: 400, ChangePct: -25},
		},
		Campaigns: []analytics.CampaignSummary{
			{CampaignID: "c-1", Name: "Spring Sale", Platform: domain.PlatformGoogleAds, KPIs: google},
			{CampaignID: "c-2", Name: "Retargeting", Platform: domain.PlatformFacebook, KPIs: meta},
		},
		Insights: []domain.Insight{{
			Title:          "Facebook is losing money",
			Description:    "ROAS is 0.60x.",
			Recommendation: "Cut Facebook spend by 30%.",
			Category:       domain.InsightBudget,
			Priority:       domain.PriorityHigh,
			Platform:       domain.PlatformFacebook,
		}},
		GeneratedAt: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
	}
}

func emptyData() Data {
	return Data{
		Workspace:   domain.Workspace{ID: "ws-empty", Name: "Empty"},
		Range:       testRange,
		Summary:     analytics.Summary{Range: testRange},
		GeneratedAt: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
	}
}
