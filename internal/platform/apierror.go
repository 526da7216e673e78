package platform

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ignite/adlens/internal/domain"
)

const maxErrorBody = 512

// APIError is a non-2xx response from a platform API.
type APIError struct {
	Platform domain.Platform
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Platform, e.Status, e.Body)
}

// Unauthorized reports whether the platform rejected the credentials.
// Graph API reports bad tokens as 400 with error code 190.
func (e *APIError) Unauthorized() bool {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return true
	}
	return e.Status == http.StatusBadRequest &&
		(strings.Contains(e.Body, `"code":190`) || strings.Contains(e.Body, "invalid_grant"))
}

// IsAuthError reports whether err is, or wraps, an APIError caused by
// rejected credentials.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

func newAPIError(p domain.Platform, status int, body []byte) *APIError {
	b := string(body)
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody] + "..."
	}
	return &APIError{Platform: p, Status: status, Body: b}
}
