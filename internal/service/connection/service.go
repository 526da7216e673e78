package connection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/observability"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/platform"
	"golang.org/x/oauth2"
)

// RefreshSkew is how close to expiry a token may get before it is refreshed.
const RefreshSkew = 5 * time.Minute

// Service implements connection business logic.
type Service struct {
	repo     Repository
	registry *platform.Registry
	signer   *platform.StateSigner
	now      func() time.Time
}

// NewService creates a connection service.
func NewService(repo Repository, registry *platform.Registry, signer *platform.StateSigner) *Service {
	return &Service{repo: repo, registry: registry, signer: signer, now: time.Now}
}

// Begin prepares a connection for authorization and returns the provider
// consent URL. An existing connection for the same platform is reused:
// pending, errored and disconnected ones move back to pending, connected
// and expired ones keep their status until the callback completes. Only the
// most recently issued URL can complete.
func (s *Service) Begin(ctx context.Context, userID, workspaceID string, p domain.Platform) (string, *domain.PlatformConnection, error) {
	if !p.Valid() {
		return "", nil, fmt.Errorf("%w: %s", platform.ErrUnsupportedPlatform, p)
	}
	connector, err := s.registry.Get(p)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrPlatformDisabled, p)
	}

	conn, err := s.repo.FindByPlatform(ctx, workspaceID, p)
	switch {
	case errors.Is(err, ErrNotFound):
		now := s.now().UTC()
		conn = &domain.PlatformConnection{
			ID:          uuid.New().String(),
			WorkspaceID: workspaceID,
			Platform:    p,
			Status:      domain.ConnectionPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, conn); err != nil {
			return "", nil, fmt.Errorf("create connection: %w", err)
		}
	case err != nil:
		return "", nil, err
	default:
		if prev := conn.Status; prev == domain.ConnectionError || prev == domain.ConnectionDisconnected {
			if err := transition(conn, domain.ConnectionPending); err != nil {
				return "", nil, err
			}
			conn.UpdatedAt = s.now().UTC()
			if err := s.repo.Save(ctx, conn, prev); err != nil {
				return "", nil, fmt.Errorf("save connection: %w", err)
			}
		}
	}

	nonce, err := platform.NewNonce()
	if err != nil {
		return "", nil, err
	}
	if err := s.repo.SetAuthNonce(ctx, conn.ID, nonce); err != nil {
		return "", nil, err
	}
	state, err := s.signer.Issue(platform.State{
		WorkspaceID:  workspaceID,
		Platform:     p,
		ConnectionID: conn.ID,
		UserID:       userID,
		Nonce:        nonce,
	})
	if err != nil {
		return "", nil, err
	}
	logger.Info("connection authorization started", "workspace_id", workspaceID, "platform", p, "connection_id", conn.ID)
	return connector.AuthCodeURL(state), conn, nil
}

// Complete handles the provider callback for the signed-in userID.
// providerErr is the provider's error parameter, empty on success. A state
// is accepted once, and only from the user who started the authorization.
func (s *Service) Complete(ctx context.Context, userID, rawState, code, providerErr string) (*domain.PlatformConnection, error) {
	st, err := s.signer.Verify(rawState)
	if err != nil {
		return nil, err
	}
	if userID == "" || st.UserID != userID {
		logger.Warn("oauth state presented by another user", "connection_id", st.ConnectionID)
		return nil, fmt.Errorf("%w: session user mismatch", platform.ErrInvalidState)
	}
	conn, err := s.repo.GetByID(ctx, st.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn.WorkspaceID != st.WorkspaceID || conn.Platform != st.Platform {
		return nil, platform.ErrInvalidState
	}
	fresh, err := s.repo.ConsumeAuthNonce(ctx, conn.ID, st.Nonce)
	if err != nil {
		return nil, err
	}
	if !fresh {
		logger.Warn("oauth state replayed or superseded", "connection_id", conn.ID)
		return nil, fmt.Errorf("%w: state already used", platform.ErrInvalidState)
	}

	if providerErr != "" {
		s.fail(ctx, conn, "authorization denied: "+providerErr)
		return conn, ErrAuthorizationDenied
	}

	connector, err := s.registry.Get(conn.Platform)
	if err != nil {
		return nil, err
	}
	tok, err := connector.Exchange(ctx, code)
	if err != nil {
		s.fail(ctx, conn, err.Error())
		return conn, err
	}
	acc, err := connector.Account(ctx, tok)
	if err != nil {
		s.fail(ctx, conn, err.Error())
		return conn, err
	}

	prev := conn.Status
	if err := transition(conn, domain.ConnectionConnected); err != nil {
		return conn, err
	}
	applyToken(conn, tok)
	conn.AccountID = acc.ID
	conn.AccountName = acc.Name
	conn.LastError = ""
	conn.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, conn, prev); err != nil {
		return nil, fmt.Errorf("save connection: %w", err)
	}
	logger.Info("connection established",
		"workspace_id", conn.WorkspaceID, "platform", conn.Platform,
		"connection_id", conn.ID, "account_id", acc.ID)
	return conn, nil
}

// fail records a failed authorization. Only pending connections move to
// error; a failed re-authorization leaves a working connection untouched.
func (s *Service) fail(ctx context.Context, conn *domain.PlatformConnection, msg string) {
	prev := conn.Status
	conn.LastError = msg
	if prev == domain.ConnectionPending {
		_ = transition(conn, domain.ConnectionError)
	}
	conn.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, conn, prev); err != nil {
		logger.Error("failed to record connection error", "connection_id", conn.ID, "error", err)
	}
	logger.Warn("connection authorization failed", "connection_id", conn.ID, "platform", conn.Platform, "error", msg)
}

// EnsureFreshToken refreshes the access token when it expires within
// RefreshSkew. A rejected refresh token marks the connection expired; other
// failures are recorded as last_error and the connection stays connected.
func (s *Service) EnsureFreshToken(ctx context.Context, conn *domain.PlatformConnection) (*domain.PlatformConnection, error) {
	if !conn.IsUsable() {
		return conn, ErrNotConnected
	}
	if !conn.NeedsRefresh(s.now(), RefreshSkew) {
		return conn, nil
	}

	connector, err := s.registry.Get(conn.Platform)
	if err != nil {
		return conn, err
	}
	oldRefresh := conn.RefreshToken
	tok, err := connector.Refresh(ctx, Token(conn))
	observability.RecordTokenRefresh(string(conn.Platform), err)
	if err != nil {
		conn.LastError = err.Error()
		conn.UpdatedAt = s.now().UTC()
		if !GrantRevoked(err) {
			rec := *conn
			rec.LastSyncedAt = nil
			if saveErr := s.repo.SaveSyncState(ctx, &rec); saveErr != nil {
				logger.Error("failed to record refresh error", "connection_id", conn.ID, "error", saveErr)
			}
			logger.Warn("token refresh failed, will retry", "connection_id", conn.ID, "platform", conn.Platform, "error", err)
			return conn, fmt.Errorf("refresh token: %w", err)
		}
		_ = transition(conn, domain.ConnectionExpired)
		if saveErr := s.repo.SaveTokens(ctx, conn, oldRefresh); saveErr != nil {
			logger.Error("failed to mark connection expired", "connection_id", conn.ID, "error", saveErr)
		}
		logger.Warn("refresh token rejected", "connection_id", conn.ID, "platform", conn.Platform, "error", err)
		return conn, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}

	applyToken(conn, tok)
	conn.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveTokens(ctx, conn, oldRefresh); err != nil {
		return conn, fmt.Errorf("save refreshed token: %w", err)
	}
	logger.Debug("token refreshed", "connection_id", conn.ID, "platform", conn.Platform)
	return conn, nil
}

// GrantRevoked reports whether a refresh failed because the provider
// rejected the grant itself, as opposed to a network or server error.
func GrantRevoked(err error) bool {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "invalid_grant", "invalid_client", "unauthorized_client":
			return true
		}
		if re.Response != nil {
			code := re.Response.StatusCode
			return code == http.StatusBadRequest || code == http.StatusUnauthorized
		}
		return false
	}
	return platform.IsAuthError(err)
}

// RecordSync stores the outcome of a sync. Rejected credentials move the
// connection to error so the user is asked to reconnect. Only the sync
// columns are written, and only while the connection is still connected;
// ErrStateChanged means the user disconnected or re-authorized meanwhile.
func (s *Service) RecordSync(ctx context.Context, conn *domain.PlatformConnection, syncErr error) error {
	rec := *conn
	now := s.now().UTC()
	rec.Status = domain.ConnectionConnected
	rec.UpdatedAt = now
	rec.LastSyncedAt = nil
	if syncErr == nil {
		rec.LastSyncedAt = &now
		rec.LastError = ""
	} else {
		rec.LastError = syncErr.Error()
		if platform.IsAuthError(syncErr) {
			_ = transition(&rec, domain.ConnectionError)
		}
	}
	if err := s.repo.SaveSyncState(ctx, &rec); err != nil {
		return err
	}
	conn.Status, conn.LastError, conn.UpdatedAt = rec.Status, rec.LastError, rec.UpdatedAt
	if rec.LastSyncedAt != nil {
		conn.LastSyncedAt = rec.LastSyncedAt
	}
	return nil
}

// Disconnect revokes local access: tokens are wiped and the status becomes
// disconnected. Campaign history is kept.
func (s *Service) Disconnect(ctx context.Context, workspaceID, id string) error {
	for attempt := 0; ; attempt++ {
		conn, err := s.repo.Get(ctx, workspaceID, id)
		if err != nil {
			return err
		}
		prev := conn.Status
		if err := transition(conn, domain.ConnectionDisconnected); err != nil {
			return err
		}
		conn.AccessToken = ""
		conn.RefreshToken = ""
		conn.TokenExpiry = nil
		conn.UpdatedAt = s.now().UTC()
		err = s.repo.Save(ctx, conn, prev)
		if errors.Is(err, ErrStateChanged) && attempt < 2 {
			continue
		}
		if err != nil {
			return fmt.Errorf("save connection: %w", err)
		}
		logger.Info("connection disconnected", "workspace_id", workspaceID, "connection_id", id)
		return nil
	}
}

// List returns the workspace's connections.
func (s *Service) List(ctx context.Context, workspaceID string) ([]domain.PlatformConnection, error) {
	return s.repo.List(ctx, workspaceID)
}

// Get returns one connection inside the workspace.
func (s *Service) Get(ctx context.Context, workspaceID, id string) (*domain.PlatformConnection, error) {
	return s.repo.Get(ctx, workspaceID, id)
}

// GetByID returns a connection without a workspace check.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.PlatformConnection, error) {
	return s.repo.GetByID(ctx, id)
}

// ListDue returns connections whose last sync is older than interval.
func (s *Service) ListDue(ctx context.Context, interval time.Duration, limit int) ([]domain.PlatformConnection, error) {
	return s.repo.ListDue(ctx, s.now().Add(-interval), limit)
}

// Token converts stored credentials into an oauth2 token.
func Token(c *domain.PlatformConnection) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if c.TokenExpiry != nil {
		tok.Expiry = *c.TokenExpiry
	}
	return tok
}

func applyToken(c *domain.PlatformConnection, tok *oauth2.Token) {
	c.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	if tok.Expiry.IsZero() {
		c.TokenExpiry = nil
	} else {
		exp := tok.Expiry.UTC()
		c.TokenExpiry = &exp
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		c.Scopes = splitScopes(scope)
	}
}

func splitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
}
