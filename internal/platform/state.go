package platform

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ignite/adlens/internal/domain"
)

// StateTTL bounds how long a user has to complete a provider consent screen.
const StateTTL = 10 * time.Minute

// State is the payload carried through the provider redirect.
type State struct {
	WorkspaceID  string          `json:"ws"`
	Platform     domain.Platform `json:"pf"`
	ConnectionID string          `json:"cid"`
	UserID       string          `json:"uid"`
	Nonce        string          `json:"nonce"`
}

type stateClaims struct {
	jwt.RegisteredClaims
	State
}

// StateSigner issues and verifies HS256-signed OAuth state values.
type StateSigner struct {
	key []byte
	now func() time.Time
}

// NewStateSigner creates a signer keyed by secret.
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{key: []byte(secret), now: time.Now}
}

// NewNonce returns 12 random bytes, hex encoded.
func NewNonce() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("state nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue signs st with a StateTTL expiry. A fresh nonce is generated when
// st.Nonce is empty.
func (s *StateSigner) Issue(st State) (string, error) {
	if st.Nonce == "" {
		nonce, err := NewNonce()
		if err != nil {
			return "", err
		}
		st.Nonce = nonce
	}

	now := s.now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
		},
		State: st,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the payload.
func (s *StateSigner) Verify(raw string) (State, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !claims.Platform.Valid() || claims.WorkspaceID == "" || claims.ConnectionID == "" {
		return State{}, ErrInvalidState
	}
	return claims.State, nil
}
