package google

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
)

var impressionMetrics = []string{
	"BUSINESS_IMPRESSIONS_DESKTOP_MAPS",
	"BUSINESS_IMPRESSIONS_DESKTOP_SEARCH",
	"BUSINESS_IMPRESSIONS_MOBILE_MAPS",
	"BUSINESS_IMPRESSIONS_MOBILE_SEARCH",
}

const (
	metricWebsiteClicks = "WEBSITE_CLICKS"
	metricCallClicks    = "CALL_CLICKS"
	metricDirections    = "BUSINESS_DIRECTION_REQUESTS"
)

// Business pulls Business Profile performance, one campaign per location.
type Business struct {
	base
	perfURL string
	acctURL string
	infoURL string
}

// NewBusiness creates the Business Profile connector.
func NewBusiness(opts Options) *Business {
	return &Business{
		base:    newBase(domain.PlatformGoogleMyBusiness, opts),
		perfURL: strings.TrimRight(opts.BusinessURL, "/"),
		acctURL: strings.TrimRight(opts.BusinessAcctURL, "/"),
		infoURL: strings.TrimRight(opts.BusinessInfoURL, "/"),
	}
}

// Account returns the first Business Profile account, e.g. "accounts/123".
func (b *Business) Account(ctx context.Context, tok *oauth2.Token) (platform.Account, error) {
	var resp struct {
		Accounts []struct {
			Name        string `json:"name"`
			AccountName string `json:"accountName"`
		} `json:"accounts"`
	}
	if err := b.do(ctx, tok, platform.Request{URL: b.acctURL + "/v1/accounts"}, &resp); err != nil {
		return platform.Account{}, err
	}
	if len(resp.Accounts) == 0 {
		return platform.Account{}, platform.ErrNoAccount
	}
	return platform.Account{ID: resp.Accounts[0].Name, Name: resp.Accounts[0].AccountName}, nil
}

type location struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (b *Business) locations(ctx context.Context, tok *oauth2.Token, account string) ([]location, error) {
	var all []location
	pageToken := ""
	for {
		params := url.Values{"readMask": {"name,title"}, "pageSize": {"100"}}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		var resp struct {
			Locations     []location `json:"locations"`
			NextPageToken string     `json:"nextPageToken"`
		}
		if err := b.do(ctx, tok, platform.Request{URL: fmt.Sprintf("%s/v1/%s/locations", b.infoURL, account), Params: params}, &resp); err != nil {
			return nil, fmt.Errorf("list locations: %w", err)
		}
		all = append(all, resp.Locations...)
		if resp.NextPageToken == "" {
			return all, nil
		}
		pageToken = resp.NextPageToken
	}
}

type datedValue struct {
	Date struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Day   int `json:"day"`
	} `json:"date"`
	Value platform.Int64 `json:"value"`
}

type timeSeriesResponse struct {
	MultiDailyMetricTimeSeries []struct {
		DailyMetricTimeSeries []struct {
			DailyMetric string `json:"dailyMetric"`
			TimeSeries  struct {
				DatedValues []datedValue `json:"datedValues"`
			} `json:"timeSeries"`
		} `json:"dailyMetricTimeSeries"`
	} `json:"multiDailyMetricTimeSeries"`
}

// FetchCampaigns sums the impression metrics into impressions, maps website
// clicks to clicks and keeps calls and direction requests in Extra.
func (b *Business) FetchCampaigns(ctx context.Context, tok *oauth2.Token, accountID string, r domain.DateRange) ([]platform.CampaignData, error) {
	locs, err := b.locations(ctx, tok, accountID)
	if err != nil {
		return nil, err
	}

	c := platform.NewCollector()
	for _, loc := range locs {
		cd := c.Campaign(loc.Name)
		cd.Name = loc.Title
		cd.Status = "ACTIVE"
		cd.Objective = "local"

		params := url.Values{}
		for _, m := range impressionMetrics {
			params.Add("dailyMetrics", m)
		}
		params.Add("dailyMetrics", metricWebsiteClicks)
		params.Add("dailyMetrics", metricCallClicks)
		params.Add("dailyMetrics", metricDirections)
		setDate(params, "dailyRange.start_date", r.From)
		setDate(params, "dailyRange.end_date", r.To)

		var resp timeSeriesResponse
		err := b.do(ctx, tok, platform.Request{
			URL:    fmt.Sprintf("%s/v1/%s:fetchMultiDailyMetricsTimeSeries", b.perfURL, loc.Name),
			Params: params,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("fetch metrics for %s: %w", loc.Name, err)
		}

		for _, multi := range resp.MultiDailyMetricTimeSeries {
			for _, series := range multi.DailyMetricTimeSeries {
				for _, dv := range series.TimeSeries.DatedValues {
					day := time.Date(dv.Date.Year, time.Month(dv.Date.Month), dv.Date.Day, 0, 0, 0, 0, time.UTC)
					m := c.Day(loc.Name, day)
					v := int64(dv.Value)
					switch series.DailyMetric {
					case metricWebsiteClicks:
						m.Clicks += v
					case metricCallClicks:
						addExtra(m, "calls", float64(v))
					case metricDirections:
						addExtra(m, "directions", float64(v))
					default:
						m.Impressions += v
					}
				}
			}
		}
	}
	return c.Result(), nil
}

func setDate(params url.Values, prefix string, t time.Time) {
	params.Set(prefix+".year", strconv.Itoa(t.Year()))
	params.Set(prefix+".month", strconv.Itoa(int(t.Month())))
	params.Set(prefix+".day", strconv.Itoa(t.Day()))
}

func addExtra(m *platform.MetricRow, key string, v float64) {
	if m.Extra == nil {
		m.Extra = map[string]float64{}
	}
	m.Extra[key] += v
}
