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

const microsPerUnit = 1_000_000

// Ads pulls campaign performance through the Google Ads REST searchStream endpoint.
type Ads struct {
	base
	baseURL     string
	version     string
	devToken    string
	loginCustID string
}

// NewAds creates the Google Ads connector.
func NewAds(opts Options) *Ads {
	return &Ads{
		base:        newBase(domain.PlatformGoogleAds, opts),
		baseURL:     strings.TrimRight(opts.AdsURL, "/"),
		version:     opts.AdsVersion,
		devToken:    opts.DevToken,
		loginCustID: strings.ReplaceAll(opts.LoginCustomerID, "-", ""),
	}
}

func (a *Ads) headers() map[string]string {
	h := map[string]string{"developer-token": a.devToken}
	if a.loginCustID != "" {
		h["login-customer-id"] = a.loginCustID
	}
	return h
}

// Account returns the first customer the login can access.
func (a *Ads) Account(ctx context.Context, tok *oauth2.Token) (platform.Account, error) {
	var resp struct {
		ResourceNames []string `json:"resourceNames"`
	}
	err := a.do(ctx, tok, platform.Request{
		URL:     fmt.Sprintf("%s/%s/customers:listAccessibleCustomers", a.baseURL, a.version),
		Headers: a.headers(),
	}, &resp)
	if err != nil {
		return platform.Account{}, err
	}
	if len(resp.ResourceNames) == 0 {
		return platform.Account{}, platform.ErrNoAccount
	}
	id := strings.TrimPrefix(resp.ResourceNames[0], "customers/")

	batches, err := a.search(ctx, tok, id, "SELECT customer.id, customer.descriptive_name FROM customer")
	if err != nil {
		return platform.Account{}, err
	}
	name := id
	for _, b := range batches {
		for _, r := range b.Results {
			if r.Customer.DescriptiveName != "" {
				name = r.Customer.DescriptiveName
			}
		}
	}
	return platform.Account{ID: id, Name: name}, nil
}

type adsBatch struct {
	Results []adsRow `json:"results"`
}

type adsRow struct {
	Customer struct {
		ID              string `json:"id"`
		DescriptiveName string `json:"descriptiveName"`
	} `json:"customer"`
	Campaign struct {
		ID                     string `json:"id"`
		Name                   string `json:"name"`
		Status                 string `json:"status"`
		AdvertisingChannelType string `json:"advertisingChannelType"`
	} `json:"campaign"`
	CampaignBudget struct {
		AmountMicros platform.Int64 `json:"amountMicros"`
	} `json:"campaignBudget"`
	Segments struct {
		Date string `json:"date"`
	} `json:"segments"`
	Metrics struct {
		Impressions      platform.Int64   `json:"impressions"`
		Clicks           platform.Int64   `json:"clicks"`
		CostMicros       platform.Int64   `json:"costMicros"`
		Conversions      platform.Float64 `json:"conversions"`
		ConversionsValue platform.Float64 `json:"conversionsValue"`
	} `json:"metrics"`
}

func (a *Ads) search(ctx context.Context, tok *oauth2.Token, customerID, gaql string) ([]adsBatch, error) {
	var batches []adsBatch
	err := a.do(ctx, tok, platform.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/%s/customers/%s/googleAds:searchStream", a.baseURL, a.version, customerID),
		Body:    map[string]string{"query": gaql},
		Headers: a.headers(),
	}, &batches)
	return batches, err
}

// FetchCampaigns runs one GAQL query segmented by date over the range.
func (a *Ads) FetchCampaigns(ctx context.Context, tok *oauth2.Token, accountID string, r domain.DateRange) ([]platform.CampaignData, error) {
	gaql := fmt.Sprintf(`SELECT campaign.id, campaign.name, campaign.status, campaign.advertising_channel_type,
  campaign_budget.amount_micros, segments.date, metrics.impressions, metrics.clicks,
  metrics.cost_micros, metrics.conversions, metrics.conversions_value
FROM campaign
WHERE segments.date BETWEEN '%s' AND '%s'`, r.From.Format(domain.DateLayout), r.To.Format(domain.DateLayout))

	batches, err := a.search(ctx, tok, strings.ReplaceAll(accountID, "-", ""), gaql)
	if err != nil {
		return nil, fmt.Errorf("google ads search: %w", err)
	}

	c := platform.NewCollector()
	for _, b := range batches {
		for _, row := range b.Results {
			day, err := time.Parse(domain.DateLayout, row.Segments.Date)
			if err != nil {
				continue
			}
			cd := c.Campaign(row.Campaign.ID)
			cd.Name = row.Campaign.Name
			cd.Status = row.Campaign.Status
			cd.Objective = row.Campaign.AdvertisingChannelType
			cd.DailyBudget = micros(row.CampaignBudget.AmountMicros)

			m := c.Day(row.Campaign.ID, day)
			m.Impressions += int64(row.Metrics.Impressions)
			m.Clicks += int64(row.Metrics.Clicks)
			m.Spend += micros(row.Metrics.CostMicros)
			m.Conversions += float64(row.Metrics.Conversions)
			m.Revenue += float64(row.Metrics.ConversionsValue)
		}
	}
	return c.Result(), nil
}

func micros(v platform.Int64) float64 {
	return domain.Round2(float64(v) / microsPerUnit)
}
