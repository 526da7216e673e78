package domain

import "time"

// ConnectionStatus enumerates the lifecycle states of a platform connection.
type ConnectionStatus string

const (
	ConnectionPending      ConnectionStatus = "pending"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionExpired      ConnectionStatus = "expired"
	ConnectionError        ConnectionStatus = "error"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// PlatformConnection is a stored OAuth credential set binding a workspace to
// one external platform account. Tokens are never serialised to JSON.
type PlatformConnection struct {
	ID           string           `json:"id" db:"id"`
	WorkspaceID  string           `json:"workspace_id" db:"workspace_id"`
	Platform     Platform         `json:"platform" db:"platform"`
	Status       ConnectionStatus `json:"status" db:"status"`
	AccountID    string           `json:"account_id" db:"account_id"`
	AccountName  string           `json:"account_name" db:"account_name"`
	AccessToken  string           `json:"-" db:"access_token"`
	RefreshToken string           `json:"-" db:"refresh_token"`
	TokenExpiry  *time.Time       `json:"token_expiry,omitempty" db:"token_expiry"`
	Scopes       []string         `json:"scopes" db:"scopes"`
	LastSyncedAt *time.Time       `json:"last_synced_at,omitempty" db:"last_synced_at"`
	LastError    string           `json:"last_error,omitempty" db:"last_error"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// NeedsRefresh reports whether the access token expires within skew of now.
// Connections without a known expiry are treated as fresh.
func (c *PlatformConnection) NeedsRefresh(now time.Time, skew time.Duration) bool {
	if c.TokenExpiry == nil || c.TokenExpiry.IsZero() {
		return false
	}
	return !now.Add(skew).Before(*c.TokenExpiry)
}

// IsUsable reports whether the connection can be used to pull data.
func (c *PlatformConnection) IsUsable() bool {
	return c.Status == ConnectionConnected && c.AccessToken != ""
}
