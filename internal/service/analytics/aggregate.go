package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/adlens/internal/domain"
)

// DefaultTopCampaigns is how many campaigns Aggregate ranks by default.
const DefaultTopCampaigns = 10

// Aggregate folds rows inside r into a Summary. Rows outside r are
// ignored. topN <= 0 uses DefaultTopCampaigns.
func Aggregate(r domain.DateRange, rows []Row, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopCampaigns
	}

	var totals KPIs
	byPlatform := make(map[domain.Platform]*KPIs)
	byDay := make(map[string]*KPIs)
	byCampaign := make(map[string]*CampaignSummary)

	for _, row := range rows {
		if !r.Contains(row.Date) {
			continue
		}
		add(&totals, row)

		pk, ok := byPlatform[row.Platform]
		if !ok {
			pk = &KPIs{}
			byPlatform[row.Platform] = pk
		}
		add(pk, row)

		day := domain.Day(row.Date).Format(domain.DateLayout)
		dk, ok := byDay[day]
		if !ok {
			dk = &KPIs{}
			byDay[day] = dk
		}
		add(dk, row)

		cs, ok := byCampaign[row.CampaignID]
		if !ok {
			cs = &CampaignSummary{CampaignID: row.CampaignID, Name: row.CampaignName, Platform: row.Platform}
			byCampaign[row.CampaignID] = cs
		}
		add(&cs.KPIs, row)
	}

	s := Summary{Range: r, Totals: finish(totals)}

	s.Platforms = make([]PlatformSummary, 0, len(byPlatform))
	for p, k := range byPlatform {
		ps := PlatformSummary{Platform: p, Name: p.DisplayName(), KPIs: finish(*k)}
		ps.SpendShare = ratio(ps.Spend, s.Totals.Spend, 100)
		s.Platforms = append(s.Platforms, ps)
	}
	sort.Slice(s.Platforms, func(i, j int) bool {
		if s.Platforms[i].Spend != s.Platforms[j].Spend {
			return s.Platforms[i].Spend > s.Platforms[j].Spend
		}
		return s.Platforms[i].Platform < s.Platforms[j].Platform
	})

	s.Daily = make([]DailyPoint, 0, r.Days())
	r.Each(func(d time.Time) {
		key := d.Format(domain.DateLayout)
		var k KPIs
		if dk, ok := byDay[key]; ok {
			k = *dk
		}
		s.Daily = append(s.Daily, DailyPoint{Date: key, KPIs: finish(k)})
	})

	s.TopCampaigns = make([]CampaignSummary, 0, len(byCampaign))
	for _, cs := range byCampaign {
		cs.KPIs = finish(cs.KPIs)
		s.TopCampaigns = append(s.TopCampaigns, *cs)
	}
	sort.Slice(s.TopCampaigns, func(i, j int) bool {
		a, b := s.TopCampaigns[i], s.TopCampaigns[j]
		if a.Spend != b.Spend {
			return a.Spend > b.Spend
		}
		if a.Clicks != b.Clicks {
			return a.Clicks > b.Clicks
		}
		return a.Name < b.Name
	})
	if len(s.TopCampaigns) > topN {
		s.TopCampaigns = s.TopCampaigns[:topN]
	}
	return s
}

func add(k *KPIs, row Row) {
	k.Impressions += row.Impressions
	k.Clicks += row.Clicks
	k.Spend += row.Spend
	k.Conversions += row.Conversions
	k.Revenue += row.Revenue
	k.Reach += row.Reach
}

// finish rounds money and computes every ratio. A ratio with a zero
// denominator is zero.
func finish(k KPIs) KPIs {
	k.Spend = domain.Round2(k.Spend)
	k.Conversions = domain.Round2(k.Conversions)
	k.Revenue = domain.Round2(k.Revenue)
	k.CTR = ratio(float64(k.Clicks), float64(k.Impressions), 100)
	k.CPC = ratio(k.Spend, float64(k.Clicks), 1)
	k.CPM = ratio(k.Spend, float64(k.Impressions), 1000)
	k.CPA = ratio(k.Spend, k.Conversions, 1)
	k.ConversionRate = ratio(k.Conversions, float64(k.Clicks), 100)
	k.ROAS = ratio(k.Revenue, k.Spend, 1)
	return k
}

func ratio(num, den, scale float64) float64 {
	if den == 0 {
		return 0
	}
	return domain.Round2(num / den * scale)
}

// Compare computes the period-over-period change of the headline KPIs.
func Compare(current, previous KPIs) Comparison {
	ch := func(c, p float64) Change {
		return Change{Current: c, Previous: p, ChangePct: PercentChange(c, p)}
	}
	return Comparison{
		Impressions: ch(float64(current.Impressions), float64(previous.Impressions)),
		Clicks:      ch(float64(current.Clicks), float64(previous.Clicks)),
		Spend:       ch(current.Spend, previous.Spend),
		Conversions: ch(current.Conversions, previous.Conversions),
		Revenue:     ch(current.Revenue, previous.Revenue),
		CTR:         ch(current.CTR, previous.CTR),
		CPC:         ch(current.CPC, previous.CPC),
		CPA:         ch(current.CPA, previous.CPA),
		ROAS:        ch(current.ROAS, previous.ROAS),
	}
}

// PercentChange returns the change from previous to current in percent.
// From zero it is 0 when current is also zero and ±100 otherwise.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		switch {
		case current > 0:
			return 100
		case current < 0:
			return -100
		default:
			return 0
		}
	}
	return domain.Round2((current - previous) / math.Abs(previous) * 100)
}
