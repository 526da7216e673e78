package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/platform"
	"github.com/ignite/adlens/internal/service/connection"
	"github.com/ignite/adlens/internal/service/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from, to string
		want     domain.DateRange
		wantErr  bool
	}{
		{name: "default", want: domain.DateRange{From: day("2024-03-02"), To: day("2024-03-31")}},
		{name: "explicit", from: "2024-01-01", to: "2024-01-31", want: domain.DateRange{From: day("2024-01-01"), To: day("2024-01-31")}},
		{name: "only to", to: "2024-02-29", want: domain.DateRange{From: day("2024-01-31"), To: day("2024-02-29")}},
		{name: "only from", from: "2024-03-25", want: domain.DateRange{From: day("2024-03-25"), To: day("2024-03-31")}},
		{name: "single day", from: "2024-03-05", to: "2024-03-05", want: domain.DateRange{From: day("2024-03-05"), To: day("2024-03-05")}},
		{name: "max length", from: "2023-04-01", to: "2024-03-31", want: domain.DateRange{From: day("2023-04-01"), To: day("2024-03-31")}},
		{name: "too long", from: "2023-03-30", to: "2024-03-31", wantErr: true},
		{name: "inverted", from: "2024-03-10", to: "2024-03-01", wantErr: true},
		{name: "bad from", from: "yesterday", wantErr: true},
		{name: "bad to", to: "2024-13-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDateRange(tt.from, tt.to, now)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePlatforms(t *testing.T) {
	got, err := parsePlatforms("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parsePlatforms(" facebook , instagram,facebook,")
	require.NoError(t, err)
	assert.Equal(t, []domain.Platform{domain.PlatformFacebook, domain.PlatformInstagram}, got)

	_, err = parsePlatforms("facebook,orkut")
	assert.Error(t, err)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, Limit: 50, Offset: 0}},
		{"?page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=-4", PaginationParams{Page: 1, Limit: 50, Offset: 0}},
		{"?page=x&limit=1000", PaginationParams{Page: 1, Limit: 200, Offset: 0}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		assert.Equal(t, tt.want, ParsePagination(r, 50, 200), tt.query)
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	p := PaginationParams{Page: 1, Limit: 20}

	resp := NewPaginatedResponse([]int{}, p, 0)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.False(t, resp.Pagination.HasMore)

	resp = NewPaginatedResponse([]int{1}, p, 41)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasMore)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{workspace.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", connection.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: name is required", workspace.ErrInvalidInput), http.StatusBadRequest},
		{platform.ErrInvalidState, http.StatusBadRequest},
		{connection.ErrPlatformDisabled, http.StatusBadRequest},
		{connection.ErrInvalidTransition, http.StatusConflict},
		{connection.ErrTokenExpired, http.StatusConflict},
		{&platform.APIError{Platform: domain.PlatformFacebook, Status: 500, Body: "boom"}, http.StatusBadGateway},
		{fmt.Errorf("pq: relation does not exist"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}

	rec := httptest.NewRecorder()
	writeServiceError(rec, fmt.Errorf("pq: password authentication failed for user adlens"))
	assert.NotContains(t, rec.Body.String(), "pq:")
}
