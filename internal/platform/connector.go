package platform

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"golang.org/x/oauth2"
)

// Sentinel errors for platform connectors.
var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNoAccount           = errors.New("no accessible account for this login")
	ErrInvalidState        = errors.New("invalid or expired oauth state")
)

// Account identifies the external account a connection is bound to.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MetricRow is one day of platform-reported performance.
type MetricRow struct {
	Date        time.Time
	Impressions int64
	Clicks      int64
	Spend       float64
	Conversions float64
	Revenue     float64
	Reach       int64
	Extra       map[string]float64
}

// CampaignData is a campaign (or organic grouping) with its daily rows.
type CampaignData struct {
	ExternalID  string
	Name        string
	Status      string
	Objective   string
	DailyBudget float64
	Daily       []MetricRow
}

// Connector talks to one external platform on behalf of a connection.
type Connector interface {
	Platform() domain.Platform

	// AuthCodeURL returns the provider consent URL carrying state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh returns a fresh token for tok.
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)

	// Account resolves the account the token grants access to.
	Account(ctx context.Context, tok *oauth2.Token) (Account, error)

	// FetchCampaigns pulls campaigns and their daily metrics for the range.
	FetchCampaigns(ctx context.Context, tok *oauth2.Token, accountID string, r domain.DateRange) ([]CampaignData, error)
}
