package api

import (
	"errors"
	"net/http"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/insight"
	"github.com/ignite/adlens/internal/pkg/httputil"
	"github.com/ignite/adlens/internal/pkg/logger"
	"github.com/ignite/adlens/internal/platform"
	"github.com/ignite/adlens/internal/report"
	"github.com/ignite/adlens/internal/service/campaign"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/ignite/adlens/internal/service/syncer"
	"github.com/ignite/adlens/internal/service/workspace"
)

// writeServiceError maps service errors to HTTP responses. Client errors
// echo the error text; anything unrecognised is logged and answered with a
// generic 500 so database and upstream details never reach the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *platform.APIError

	switch {
	case errors.Is(err, workspace.ErrNotFound),
		errors.Is(err, connection.ErrNotFound),
		errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, insight.ErrNotFound),
		errors.Is(err, report.ErrNotFound):
		httputil.NotFound(w, err.Error())

	case errors.Is(err, workspace.ErrInvalidInput),
		errors.Is(err, campaign.ErrInvalidInput),
		errors.Is(err, insight.ErrInvalidInput),
		errors.Is(err, report.ErrInvalidInput),
		errors.Is(err, report.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, platform.ErrUnsupportedPlatform),
		errors.Is(err, platform.ErrInvalidState):
		httputil.BadRequest(w, err.Error())

	case errors.Is(err, connection.ErrPlatformDisabled):
		httputil.ErrorCode(w, http.StatusBadRequest, "platform_disabled", err.Error())

	case errors.Is(err, connection.ErrInvalidTransition),
		errors.Is(err, connection.ErrNotConnected),
		errors.Is(err, connection.ErrStateChanged):
		httputil.Conflict(w, err.Error())

	case errors.Is(err, connection.ErrTokenExpired):
		httputil.ErrorCode(w, http.StatusConflict, "token_expired", err.Error())

	case errors.Is(err, syncer.ErrLocked),
		errors.Is(err, syncer.ErrLockLost):
		httputil.ErrorCode(w, http.StatusConflict, "sync_in_progress", err.Error())

	case errors.Is(err, report.ErrMailerDisabled):
		httputil.ErrorCode(w, http.StatusServiceUnavailable, "mailer_disabled", err.Error())

	case errors.As(err, &apiErr):
		logger.Warn("upstream platform error", "platform", apiErr.Platform, "status", apiErr.Status)
		httputil.BadGateway(w, string(apiErr.Platform)+" request failed")

	default:
		httputil.InternalError(w, err)
	}
}
