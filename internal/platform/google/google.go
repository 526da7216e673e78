// Package google implements connectors for Google Ads, Google Analytics 4,
// Search Console and Business Profile. All four share one OAuth client and
// differ only in scopes and data APIs.
package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/adlens/internal/config"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httpretry"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes per platform. Every connection also asks for the user's email so
// the account name can fall back to it.
var scopes = map[domain.Platform][]string{
	domain.PlatformGoogleAds:           {"https://www.googleapis.com/auth/adwords"},
	domain.PlatformGoogleAnalytics:     {"https://www.googleapis.com/auth/analytics.readonly"},
	domain.PlatformGoogleSearchConsole: {"https://www.googleapis.com/auth/webmasters.readonly"},
	domain.PlatformGoogleMyBusiness:    {"https://www.googleapis.com/auth/business.manage"},
}

// Options configures the Google connectors.
type Options struct {
	ClientID        string
	ClientSecret    string
	RedirectBase    string // callback is RedirectBase + /oauth/{platform}/callback
	DevToken        string
	LoginCustomerID string
	AdsVersion      string

	AdsURL          string
	AnalyticsURL    string
	AdminURL        string
	SearchURL       string
	BusinessURL     string
	BusinessAcctURL string
	BusinessInfoURL string

	// Endpoint overrides google.Endpoint (tests).
	Endpoint oauth2.Endpoint
	HTTP     httpretry.HTTPDoer
}

// OptionsFromConfig maps application config onto connector options.
func OptionsFromConfig(cfg config.GoogleConfig, baseURL string) Options {
	return Options{
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
		RedirectBase:    baseURL,
		DevToken:        cfg.AdsDevToken,
		LoginCustomerID: cfg.AdsLoginCustID,
		AdsVersion:      cfg.AdsAPIVersion,
		AdsURL:          cfg.AdsBaseURL,
		AnalyticsURL:    cfg.AnalyticsURL,
		AdminURL:        cfg.AccountAdminURL,
		SearchURL:       cfg.SearchURL,
		BusinessURL:     cfg.BusinessURL,
		BusinessAcctURL: cfg.BusinessAcctURL,
		BusinessInfoURL: cfg.BusinessInfoURL,
		HTTP:            platform.NewHTTPClient(cfg.Timeout()),
	}
}

// NewConnectors builds all four Google connectors.
func NewConnectors(opts Options) []platform.Connector {
	return []platform.Connector{
		NewAds(opts),
		NewAnalytics(opts),
		NewSearchConsole(opts),
		NewBusiness(opts),
	}
}

// base carries the OAuth plumbing shared by every Google connector.
type base struct {
	platform domain.Platform
	oauth    *oauth2.Config
	http     httpretry.HTTPDoer
}

func newBase(p domain.Platform, opts Options) base {
	ep := opts.Endpoint
	if ep.AuthURL == "" {
		ep = google.Endpoint
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = platform.NewHTTPClient(0)
	}
	return base{
		platform: p,
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     ep,
			RedirectURL:  strings.TrimRight(opts.RedirectBase, "/") + "/oauth/" + string(p) + "/callback",
			Scopes:       append([]string{"openid", "email"}, scopes[p]...),
		},
		http: httpClient,
	}
}

func (b base) Platform() domain.Platform { return b.platform }

// AuthCodeURL requests offline access and forces the consent prompt so
// Google always returns a refresh token.
func (b base) AuthCodeURL(state string) string {
	return b.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (b base) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s code exchange: %w", b.platform, err)
	}
	return tok, nil
}

// Refresh uses the refresh token. Google omits the refresh token from
// refresh responses, so the original one is carried over.
func (b base) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, fmt.Errorf("%s refresh: no refresh token", b.platform)
	}
	expired := *tok
	expired.AccessToken = ""
	fresh, err := b.oauth.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil, fmt.Errorf("%s refresh: %w", b.platform, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	return fresh, nil
}

func (b base) do(ctx context.Context, tok *oauth2.Token, req platform.Request, out any) error {
	req.Token = tok.AccessToken
	return platform.Do(ctx, b.http, b.platform, req, out)
}
