package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
)

// conversionActions are the action types counted as conversions.
var conversionActions = map[string]bool{
	"purchase":                             true,
	"offsite_conversion.fb_pixel_purchase": true,
	"lead":                                 true,
	"complete_registration":                true,
	"onsite_conversion.purchase":           true,
}

// Facebook pulls ad account campaigns and their daily insights.
type Facebook struct {
	base
}

// NewFacebook creates the Facebook Ads connector.
func NewFacebook(opts Options) *Facebook {
	return &Facebook{base: newBase(domain.PlatformFacebook, opts)}
}

// Account returns the first ad account of the user (numeric id, no act_ prefix).
func (f *Facebook) Account(ctx context.Context, tok *oauth2.Token) (platform.Account, error) {
	var resp struct {
		Data []struct {
			AccountID string `json:"account_id"`
			Name      string `json:"name"`
		} `json:"data"`
	}
	err := f.get(ctx, tok, "/me/adaccounts", url.Values{"fields": {"account_id,name"}}, &resp)
	if err != nil {
		return platform.Account{}, err
	}
	if len(resp.Data) == 0 {
		return platform.Account{}, platform.ErrNoAccount
	}
	return platform.Account{ID: resp.Data[0].AccountID, Name: resp.Data[0].Name}, nil
}

// FetchCampaigns lists campaigns then pulls account-level insights at
// campaign level with one row per day.
func (f *Facebook) FetchCampaigns(ctx context.Context, tok *oauth2.Token, accountID string, r domain.DateRange) ([]platform.CampaignData, error) {
	act := "/act_" + strings.TrimPrefix(accountID, "act_")
	c := platform.NewCollector()

	err := f.getPaged(ctx, tok, act+"/campaigns", url.Values{
		"fields": {"id,name,status,objective,daily_budget"},
		"limit":  {"200"},
	}, func(page *pagedResponse) error {
		var camps []fbCampaign
		if err := json.Unmarshal(page.Data, &camps); err != nil {
			return fmt.Errorf("decode campaigns: %w", err)
		}
		for _, fc := range camps {
			cd := c.Campaign(fc.ID)
			cd.Name = fc.Name
			cd.Status = fc.Status
			cd.Objective = fc.Objective
			// budgets are in minor currency units
			cd.DailyBudget = domain.Round2(float64(fc.DailyBudget) / 100)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("facebook campaigns: %w", err)
	}

	timeRange, _ := json.Marshal(map[string]string{
		"since": r.From.Format(domain.DateLayout),
		"until": r.To.Format(domain.DateLayout),
	})
	err = f.getPaged(ctx, tok, act+"/insights", url.Values{
		"level":          {"campaign"},
		"time_increment": {"1"},
		"time_range":     {string(timeRange)},
		"fields":         {"campaign_id,campaign_name,impressions,clicks,spend,reach,actions,action_values"},
		"limit":          {"500"},
	}, func(page *pagedResponse) error {
		var rows []fbInsight
		if err := json.Unmarshal(page.Data, &rows); err != nil {
			return fmt.Errorf("decode insights: %w", err)
		}
		for _, in := range rows {
			day, err := time.Parse(domain.DateLayout, in.DateStart)
			if err != nil {
				continue
			}
			cd := c.Campaign(in.CampaignID)
			if cd.Name == "" {
				cd.Name = in.CampaignName
			}
			m := c.Day(in.CampaignID, day)
			m.Impressions += int64(in.Impressions)
			m.Clicks += int64(in.Clicks)
			m.Spend += float64(in.Spend)
			m.Reach += int64(in.Reach)
			m.Conversions += sumActions(in.Actions)
			m.Revenue += sumActions(in.ActionValues)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("facebook insights: %w", err)
	}
	return c.Result(), nil
}

func sumActions(actions []fbAction) float64 {
	var total float64
	for _, a := range actions {
		if conversionActions[a.ActionType] {
			total += float64(a.Value)
		}
	}
	return total
}
