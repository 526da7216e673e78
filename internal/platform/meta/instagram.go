package meta

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
)

// igMaxWindow is the longest range the insights endpoint accepts per call.
const igMaxWindow = 30

// Instagram pulls business account insights as a single organic campaign.
type Instagram struct {
	base
}

// NewInstagram creates the Instagram connector.
func NewInstagram(opts Options) *Instagram {
	return &Instagram{base: newBase(domain.PlatformInstagram, opts)}
}

// Account returns the first Instagram business account linked to one of
// the user's pages.
func (i *Instagram) Account(ctx context.Context, tok *oauth2.Token) (platform.Account, error) {
	var resp struct {
		Data []struct {
			ID                       string `json:"id"`
			Name                     string `json:"name"`
			InstagramBusinessAccount *struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	err := i.get(ctx, tok, "/me/accounts", url.Values{
		"fields": {"id,name,instagram_business_account{id,username}"},
	}, &resp)
	if err != nil {
		return platform.Account{}, err
	}
	for _, page := range resp.Data {
		if ig := page.InstagramBusinessAccount; ig != nil && ig.ID != "" {
			return platform.Account{ID: ig.ID, Name: "@" + ig.Username}, nil
		}
	}
	return platform.Account{}, platform.ErrNoAccount
}

// FetchCampaigns requests daily impressions, reach, profile views and
// website clicks in windows of at most igMaxWindow days.
func (i *Instagram) FetchCampaigns(ctx context.Context, tok *oauth2.Token, accountID string, r domain.DateRange) ([]platform.CampaignData, error) {
	c := platform.NewCollector()
	cd := c.Campaign(accountID)
	cd.Name = "Instagram organic"
	cd.Status = "ACTIVE"
	cd.Objective = "organic"

	for from := domain.Day(r.From); !from.After(r.To); from = from.AddDate(0, 0, igMaxWindow) {
		to := from.AddDate(0, 0, igMaxWindow-1)
		if to.After(r.To) {
			to = domain.Day(r.To)
		}
		var resp struct {
			Data []igMetric `json:"data"`
		}
		err := i.get(ctx, tok, "/"+accountID+"/insights", url.Values{
			"metric": {"impressions,reach,profile_views,website_clicks"},
			"period": {"day"},
			"since":  {strconv.FormatInt(from.Unix(), 10)},
			"until":  {strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10)},
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("instagram insights: %w", err)
		}

		for _, metric := range resp.Data {
			for _, v := range metric.Values {
				end, err := time.Parse("2006-01-02T15:04:05-0700", v.EndTime)
				if err != nil {
					continue
				}
				// end_time is the close of the reported day in Pacific time
				day := domain.Day(end.Add(-24 * time.Hour))
				if !r.Contains(day) {
					continue
				}
				m := c.Day(accountID, day)
				switch metric.Name {
				case "impressions":
					m.Impressions += int64(v.Value)
				case "reach":
					m.Reach += int64(v.Value)
				case "website_clicks":
					m.Clicks += int64(v.Value)
				case "profile_views":
					if m.Extra == nil {
						m.Extra = map[string]float64{}
					}
					m.Extra["profile_views"] += float64(v.Value)
				}
			}
		}
	}
	return c.Result(), nil
}
