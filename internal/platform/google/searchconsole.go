package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
)

// SearchConsole pulls organic search performance for one verified site.
type SearchConsole struct {
	base
	baseURL string
}

// NewSearchConsole creates the Search Console connector.
func NewSearchConsole(opts Options) *SearchConsole {
	return &SearchConsole{
		base:    newBase(domain.PlatformGoogleSearchConsole, opts),
		baseURL: strings.TrimRight(opts.SearchURL, "/"),
	}
}

// Account returns the first site the login has verified access to.
func (s *SearchConsole) Account(ctx context.Context, tok *oauth2.Token) (platform.Account, error) {
	var resp struct {
		SiteEntry []struct {
			SiteURL         string `json:"siteUrl"`
			PermissionLevel string `json:"permissionLevel"`
		} `json:"siteEntry"`
	}
	if err := s.do(ctx, tok, platform.Request{URL: s.baseURL + "/sites"}, &resp); err != nil {
		return platform.Account{}, err
	}
	for _, site := range resp.SiteEntry {
		if site.PermissionLevel == "siteUnverifiedUser" {
			continue
		}
		return platform.Account{ID: site.SiteURL, Name: site.SiteURL}, nil
	}
	return platform.Account{}, platform.ErrNoAccount
}

// FetchCampaigns queries by date and query and folds the rows into one
// campaign for the site. Average position is impression weighted and kept
// in Extra together with the number of distinct queries per day.
func (s *SearchConsole) FetchCampaigns(ctx context.Context, tok *oauth2.Token, siteURL string, r domain.DateRange) ([]platform.CampaignData, error) {
	var resp struct {
		Rows []struct {
			Keys        []string `json:"keys"`
			Clicks      float64  `json:"clicks"`
			Impressions float64  `json:"impressions"`
			Position    float64  `json:"position"`
		} `json:"rows"`
	}
	err := s.do(ctx, tok, platform.Request{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/sites/%s/searchAnalytics/query", s.baseURL, url.PathEscape(siteURL)),
		Body: map[string]any{
			"startDate":  r.From.Format(domain.DateLayout),
			"endDate":    r.To.Format(domain.DateLayout),
			"dimensions": []string{"date", "query"},
			"rowLimit":   25000,
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("search console query: %w", err)
	}

	c := platform.NewCollector()
	cd := c.Campaign(siteURL)
	cd.Name = siteURL
	cd.Status = "ACTIVE"
	cd.Objective = "organic_search"

	weighted := make(map[time.Time]float64)
	for _, row := range resp.Rows {
		if len(row.Keys) < 1 {
			continue
		}
		day, err := time.Parse(domain.DateLayout, row.Keys[0])
		if err != nil {
			continue
		}
		m := c.Day(siteURL, day)
		m.Clicks += int64(row.Clicks)
		m.Impressions += int64(row.Impressions)
		if m.Extra == nil {
			m.Extra = map[string]float64{}
		}
		m.Extra["queries"]++
		weighted[m.Date] += row.Position * row.Impressions
	}

	out := c.Result()
	for i := range out[0].Daily {
		m := &out[0].Daily[i]
		if m.Impressions > 0 {
			m.Extra["position"] = domain.Round2(weighted[m.Date] / float64(m.Impressions))
		}
	}
	return out, nil
}
