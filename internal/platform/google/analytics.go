package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
)

const ga4DateLayout = "20060102"

// Analytics pulls GA4 sessions by campaign through the Data API runReport.
type Analytics struct {
	base
	dataURL  string
	adminURL string
}

// NewAnalytics creates the GA4 connector.
func NewAnalytics(opts Options) *Analytics {
	return &Analytics{
		base:     newBase(domain.PlatformGoogleAnalytics, opts),
		dataURL:  strings.TrimRight(opts.AnalyticsURL, "/"),
		adminURL: strings.TrimRight(opts.AdminURL, "/"),
	}
}

// Account returns the first GA4 property visible to the login.
func (a *Analytics) Account(ctx context.Context, tok *oauth2.Token) (platform.Account, error) {
	var resp struct {
		AccountSummaries []struct {
			DisplayName       string `json:"displayName"`
			PropertySummaries []struct {
				Property    string `json:"property"`
				DisplayName string `json:"displayName"`
			} `json:"propertySummaries"`
		} `json:"accountSummaries"`
	}
	if err := a.do(ctx, tok, platform.Request{URL: a.adminURL + "/v1beta/accountSummaries"}, &resp); err != nil {
		return platform.Account{}, err
	}
	for _, acc := range resp.AccountSummaries {
		for _, p := range acc.PropertySummaries {
			return platform.Account{
				ID:   strings.TrimPrefix(p.Property, "properties/"),
				Name: p.DisplayName,
			}, nil
		}
	}
	return platform.Account{}, platform.ErrNoAccount
}

type ga4Value struct {
	Value string `json:"value"`
}

type ga4Report struct {
	Rows []struct {
		DimensionValues []ga4Value `json:"dimensionValues"`
		MetricValues    []struct {
			Value platform.Float64 `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

// FetchCampaigns maps sessions to clicks and page views to impressions, one
// campaign per GA4 session campaign name.
func (a *Analytics) FetchCampaigns(ctx context.Context, tok *oauth2.Token, propertyID string, r domain.DateRange) ([]platform.CampaignData, error) {
	body := map[string]any{
		"dateRanges": []map[string]string{{
			"startDate": r.From.Format(domain.DateLayout),
			"endDate":   r.To.Format(domain.DateLayout),
		}},
		"dimensions": []map[string]string{{"name": "date"}, {"name": "sessionCampaignName"}},
		"metrics": []map[string]string{
			{"name": "sessions"}, {"name": "screenPageViews"},
			{"name": "conversions"}, {"name": "totalRevenue"},
		},
		"limit": 100000,
	}

	var rep ga4Report
	err := a.do(ctx, tok, platform.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/v1beta/properties/%s:runReport", a.dataURL, propertyID),
		Body:   body,
	}, &rep)
	if err != nil {
		return nil, fmt.Errorf("ga4 runReport: %w", err)
	}

	c := platform.NewCollector()
	for _, row := range rep.Rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 4 {
			continue
		}
		day, err := time.Parse(ga4DateLayout, row.DimensionValues[0].Value)
		if err != nil {
			continue
		}
		name := row.DimensionValues[1].Value
		if name == "" {
			name = "(not set)"
		}
		cd := c.Campaign(name)
		cd.Name = name
		cd.Status = "ACTIVE"
		cd.Objective = "traffic"

		m := c.Day(name, day)
		m.Clicks += int64(row.MetricValues[0].Value)
		m.Impressions += int64(row.MetricValues[1].Value)
		m.Conversions += float64(row.MetricValues[2].Value)
		m.Revenue += float64(row.MetricValues[3].Value)
	}
	return c.Result(), nil
}
