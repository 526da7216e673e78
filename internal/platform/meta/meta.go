// Package meta implements the Facebook Ads and Instagram connectors on the
// Graph API. Both use long-lived user tokens obtained by exchanging the
// short-lived token returned from the OAuth dialog.
package meta

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/config"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httpretry"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

var scopes = map[domain.Platform][]string{
	domain.PlatformFacebook:  {"ads_read", "read_insights", "business_management"},
	domain.PlatformInstagram: {"instagram_basic", "instagram_manage_insights", "pages_show_list", "pages_read_engagement"},
}

// Options configures the Meta connectors.
type Options struct {
	AppID        string
	AppSecret    string
	RedirectBase string
	GraphURL     string
	Version      string

	// DialogURL overrides the facebook.com OAuth dialog (tests).
	DialogURL string
	HTTP      httpretry.HTTPDoer
}

// OptionsFromConfig maps application config onto connector options.
func OptionsFromConfig(cfg config.MetaConfig, baseURL string) Options {
	return Options{
		AppID:        cfg.AppID,
		AppSecret:    cfg.AppSecret,
		RedirectBase: baseURL,
		GraphURL:     cfg.GraphURL,
		Version:      cfg.GraphVersion,
		HTTP:         platform.NewHTTPClient(cfg.Timeout()),
	}
}

// NewConnectors builds the Facebook and Instagram connectors.
func NewConnectors(opts Options) []platform.Connector {
	return []platform.Connector{NewFacebook(opts), NewInstagram(opts)}
}

type base struct {
	platform  domain.Platform
	oauth     *oauth2.Config
	graph     string
	appID     string
	appSecret string
	http      httpretry.HTTPDoer
}

func newBase(p domain.Platform, opts Options) base {
	graph := strings.TrimRight(opts.GraphURL, "/") + "/" + opts.Version
	ep := facebook.Endpoint
	ep.TokenURL = graph + "/oauth/access_token"
	if opts.DialogURL != "" {
		ep.AuthURL = opts.DialogURL
	}
	httpClient := opts.HTTP
	if httpClient == nil {
		httpClient = platform.NewHTTPClient(0)
	}
	return base{
		platform: p,
		oauth: &oauth2.Config{
			ClientID:     opts.AppID,
			ClientSecret: opts.AppSecret,
			Endpoint:     ep,
			RedirectURL:  strings.TrimRight(opts.RedirectBase, "/") + "/oauth/" + string(p) + "/callback",
			Scopes:       scopes[p],
		},
		graph:     graph,
		appID:     opts.AppID,
		appSecret: opts.AppSecret,
		http:      httpClient,
	}
}

func (b base) Platform() domain.Platform { return b.platform }

func (b base) AuthCodeURL(state string) string {
	return b.oauth.AuthCodeURL(state)
}

// Exchange trades the code for a short-lived token and immediately swaps it
// for a long-lived one.
func (b base) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	short, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s code exchange: %w", b.platform, err)
	}
	return b.longLived(ctx, short.AccessToken)
}

// Refresh re-exchanges the current long-lived token. Meta has no refresh
// tokens; an already expired token cannot be refreshed.
func (b base) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%s refresh: no access token", b.platform)
	}
	return b.longLived(ctx, tok.AccessToken)
}

func (b base) longLived(ctx context.Context, accessToken string) (*oauth2.Token, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	err := platform.Do(ctx, b.http, b.platform, platform.Request{
		URL: b.graph + "/oauth/access_token",
		Params: url.Values{
			"grant_type":        {"fb_exchange_token"},
			"client_id":         {b.appID},
			"client_secret":     {b.appSecret},
			"fb_exchange_token": {accessToken},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s long-lived token: %w", b.platform, err)
	}
	tok := &oauth2.Token{AccessToken: resp.AccessToken, TokenType: resp.TokenType}
	if resp.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok, nil
}

func (b base) get(ctx context.Context, tok *oauth2.Token, path string, params url.Values, out any) error {
	return platform.Do(ctx, b.http, b.platform, platform.Request{
		URL:    b.graph + path,
		Params: params,
		Token:  tok.AccessToken,
	}, out)
}

// getPaged follows paging.next links, handing each page's raw data to fn.
func (b base) getPaged(ctx context.Context, tok *oauth2.Token, path string, params url.Values, fn func(page *pagedResponse) error) error {
	next := b.graph + path
	for next != "" {
		var page pagedResponse
		err := platform.Do(ctx, b.http, b.platform, platform.Request{URL: next, Params: params, Token: tok.AccessToken}, &page)
		if err != nil {
			return err
		}
		if err := fn(&page); err != nil {
			return err
		}
		// paging.next already carries the query string
		next, params = page.Paging.Next, nil
	}
	return nil
}
