package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func TestPlatformHelpers(t *testing.T) {
	assert.Len(t, AllPlatforms(), 6)
	for _, p := range AllPlatforms() {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Platform("tiktok").Valid())
	assert.Equal(t, ProviderMeta, PlatformInstagram.Provider())
	assert.Equal(t, ProviderGoogle, PlatformGoogleSearchConsole.Provider())
	assert.Equal(t, "Facebook Ads", PlatformFacebook.DisplayName())
	assert.True(t, PlatformGoogleAds.IsPaid())
	assert.False(t, PlatformGoogleAnalytics.IsPaid())
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &PlatformConnection{}
	assert.False(t, c.NeedsRefresh(now, 5*time.Minute), "no expiry known")

	exp := now.Add(3 * time.Minute)
	c.TokenExpiry = &exp
	assert.True(t, c.NeedsRefresh(now, 5*time.Minute))

	exp = now.Add(time.Hour)
	assert.False(t, c.NeedsRefresh(now, 5*time.Minute))
}

func TestDeriveMetric(t *testing.T) {
	m := CampaignMetric{Impressions: 2000, Clicks: 50, Spend: 100, Revenue: 350}
	m.Derive()
	assert.Equal(t, 2.5, m.CTR)
	assert.Equal(t, 3.5, m.ROAS)

	zero := CampaignMetric{Clicks: 3}
	zero.Derive()
	assert.Zero(t, zero.CTR)
	assert.Zero(t, zero.ROAS)
}

func TestDateRange(t *testing.T) {
	r := DateRange{From: day("2026-03-01"), To: day("2026-03-07")}
	assert.NoError(t, r.Validate())
	assert.Equal(t, 7, r.Days())

	prev := r.Previous()
	assert.Equal(t, day("2026-02-22"), prev.From)
	assert.Equal(t, day("2026-02-28"), prev.To)

	var days []string
	r.Each(func(d time.Time) { days = append(days, d.Format(DateLayout)) })
	assert.Len(t, days, 7)
	assert.Equal(t, "2026-03-01", days[0])
	assert.Equal(t, "2026-03-07", days[6])

	assert.True(t, r.Contains(time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(day("2026-03-08")))

	assert.ErrorIs(t, DateRange{From: day("2026-03-02"), To: day("2026-03-01")}.Validate(), ErrInvalidRange)
	assert.ErrorIs(t, DateRange{From: day("2024-01-01"), To: day("2026-01-01")}.Validate(), ErrInvalidRange)
}

func TestLastNDays(t *testing.T) {
	r := LastNDays(time.Date(2026, 3, 30, 18, 0, 0, 0, time.UTC), 30)
	assert.Equal(t, day("2026-03-01"), r.From)
	assert.Equal(t, day("2026-03-30"), r.To)
}

func TestReportFormat(t *testing.T) {
	assert.True(t, FormatXLSX.Valid())
	assert.False(t, ReportFormat("docx").Valid())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())

	r := Report{Format: FormatCSV, From: day("2026-03-01"), To: day("2026-03-31")}
	assert.Equal(t, "adlens-20260301-20260331.csv", r.Filename())
}

func TestInsightEnums(t *testing.T) {
	assert.True(t, InsightSEO.Valid())
	assert.False(t, InsightCategory("misc").Valid())
	assert.True(t, PriorityLow.Valid())
	assert.Less(t, PriorityHigh.Rank(), PriorityLow.Rank())
	assert.False(t, InsightStatus("archived").Valid())
}
