package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/adlens/internal/config"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/logger"
)

const (
	stateCookie        = "oauth_state"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	devEmail           = "dev@adlens.local"
)

// GoogleUserInfo represents the user info returned by Google
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	HD            string `json:"hd"` // Hosted domain (Workspace domain)
}

// UserSyncer persists signed-in users and returns their stored record.
type UserSyncer interface {
	FindOrCreate(ctx context.Context, email, name, picture string) (*domain.User, error)
}

type ctxKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// SessionFromContext returns the session RequireAuth stored, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// AuthManager handles Google sign-in for dashboard users
type AuthManager struct {
	config       config.AuthConfig
	oauth2Config *oauth2.Config
	store        SessionStore
	users        UserSyncer
	httpClient   *http.Client
	userInfoURL  string
	now          func() time.Time

	devMu      sync.Mutex
	devSession *Session
}

// NewAuthManager creates a new authentication manager
func NewAuthManager(cfg config.AuthConfig, baseURL string, store SessionStore, users UserSyncer) *AuthManager {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &AuthManager{
		config:       cfg,
		oauth2Config: oauth2Config,
		store:        store,
		users:        users,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		userInfoURL:  defaultUserInfoURL,
		now:          time.Now,
	}
}

func (am *AuthManager) sessionTTL() time.Duration {
	return time.Duration(am.config.CookieMaxAge) * time.Second
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HandleLogin initiates the Google OAuth flow
func (am *AuthManager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if am.config.AllowedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", am.config.AllowedDomain))
	}
	http.Redirect(w, r, am.oauth2Config.AuthCodeURL(state, opts...), http.StatusTemporaryRedirect)
}

// HandleCallback processes the OAuth callback from Google
func (am *AuthManager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || q.Get("state") != c.Value {
		logger.Warn("auth state mismatch", "cookie_present", err == nil)
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errMsg := q.Get("error"); errMsg != "" {
		logger.Warn("google sign-in returned error", "error", errMsg)
		http.Redirect(w, r, "/?error="+url.QueryEscape(errMsg), http.StatusTemporaryRedirect)
		return
	}

	ctx := r.Context()
	token, err := am.oauth2Config.Exchange(ctx, q.Get("code"))
	if err != nil {
		logger.Error("auth code exchange failed", "error", err)
		http.Redirect(w, r, "/?error=exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	info, err := am.getUserInfo(ctx, token.AccessToken)
	if err != nil {
		logger.Error("google userinfo failed", "error", err)
		http.Redirect(w, r, "/?error=userinfo_failed", http.StatusTemporaryRedirect)
		return
	}

	if !am.domainAllowed(info.Email) {
		logger.Warn("sign-in domain not allowed", "email", info.Email, "allowed", am.config.AllowedDomain)
		http.Redirect(w, r, "/?error=domain_not_allowed", http.StatusTemporaryRedirect)
		return
	}

	user, err := am.users.FindOrCreate(ctx, info.Email, info.Name, info.Picture)
	if err != nil {
		logger.Error("persist user failed", "email", info.Email, "error", err)
		http.Redirect(w, r, "/?error=session_failed", http.StatusTemporaryRedirect)
		return
	}

	sessionID, err := randomToken()
	if err != nil {
		http.Redirect(w, r, "/?error=session_failed", http.StatusTemporaryRedirect)
		return
	}
	now := am.now()
	session := &Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Picture:   user.Picture,
		Domain:    info.HD,
		CreatedAt: now,
		ExpiresAt: now.Add(am.sessionTTL()),
	}
	if err := am.store.Save(ctx, sessionID, session, am.sessionTTL()); err != nil {
		logger.Error("save session failed", "error", err)
		http.Redirect(w, r, "/?error=session_failed", http.StatusTemporaryRedirect)
		return
	}

	logger.Info("user signed in", "email", user.Email, "user_id", user.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     am.config.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   am.config.CookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (am *AuthManager) domainAllowed(email string) bool {
	if am.config.AllowedDomain == "" {
		return true
	}
	_, d, ok := strings.Cut(email, "@")
	return ok && strings.EqualFold(d, am.config.AllowedDomain)
}

// HandleLogout logs out the user
func (am *AuthManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(am.config.CookieName); err == nil {
		if err := am.store.Delete(r.Context(), c.Value); err != nil {
			logger.Warn("delete session failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:   am.config.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleUserInfo returns the current user's info as JSON
func (am *AuthManager) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	session := am.GetSession(r)
	if session == nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"authenticated": false})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"authenticated": true,
		"dev_mode":      am.config.DevMode,
		"user": map[string]string{
			"id":      session.UserID,
			"email":   session.Email,
			"name":    session.Name,
			"picture": session.Picture,
		},
	})
}

// GetSession returns the session for the current request, or nil if not
// authenticated. In dev mode every request gets the developer session.
func (am *AuthManager) GetSession(r *http.Request) *Session {
	if am.config.DevMode {
		s, err := am.devSessionFor(r.Context())
		if err != nil {
			logger.Error("dev session unavailable", "error", err)
			return nil
		}
		return s
	}

	c, err := r.Cookie(am.config.CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	s, err := am.store.Get(r.Context(), c.Value)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			logger.Warn("session lookup failed", "error", err)
		}
		return nil
	}
	if s.Expired(am.now()) {
		_ = am.store.Delete(r.Context(), c.Value)
		return nil
	}
	return s
}

// devSessionFor persists the developer user on first use so workspace
// ownership has a real row to reference.
func (am *AuthManager) devSessionFor(ctx context.Context) (*Session, error) {
	am.devMu.Lock()
	defer am.devMu.Unlock()
	if am.devSession != nil {
		return am.devSession, nil
	}
	u, err := am.users.FindOrCreate(ctx, devEmail, "Developer", "")
	if err != nil {
		return nil, err
	}
	am.devSession = &Session{UserID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: am.now()}
	logger.Warn("DEV_MODE enabled: all requests run as the developer user", "user_id", u.ID)
	return am.devSession, nil
}

// RequireAuth rejects requests without a session with 401 JSON and stores
// the session in the request context.
func (am *AuthManager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := am.GetSession(r)
		if session == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// getUserInfo fetches the user's profile from Google
func (am *AuthManager) getUserInfo(ctx context.Context, accessToken string) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, am.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := am.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API error: %d %s", resp.StatusCode, string(body))
	}

	var info GoogleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Email == "" {
		return nil, errors.New("google user info has no email")
	}
	return &info, nil
}

// ValidateCredentials probes Google's token endpoint with a dummy code so
// rotated client credentials surface at boot instead of at first login.
func (am *AuthManager) ValidateCredentials(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"validation_probe"},
		"client_id":     {am.oauth2Config.ClientID},
		"client_secret": {am.oauth2Config.ClientSecret},
		"redirect_uri":  {am.oauth2Config.RedirectURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, am.oauth2Config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := am.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	bodyStr := string(body)

	// invalid_grant means the client is fine and only the dummy code was rejected.
	if strings.Contains(bodyStr, "invalid_grant") || strings.Contains(bodyStr, "invalid_request") || strings.Contains(bodyStr, "redirect_uri_mismatch") {
		return nil
	}
	if strings.Contains(bodyStr, "invalid_client") {
		return errors.New("google sign-in client_id or client_secret rejected by Google")
	}
	return fmt.Errorf("unexpected response from Google token endpoint (HTTP %d): %s", resp.StatusCode, bodyStr)
}
