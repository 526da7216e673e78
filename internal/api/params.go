package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/domain"
)

// DefaultRangeDays is the dashboard range when from/to are omitted.
const DefaultRangeDays = 30

// parseDateRange reads from and to (YYYY-MM-DD). Missing bounds default to
// the last DefaultRangeDays ending today; a lone bound is completed from
// the default window.
func parseDateRange(from, to string, now time.Time) (domain.DateRange, error) {
	r := domain.LastNDays(now, DefaultRangeDays)
	if to != "" {
		t, err := time.Parse(domain.DateLayout, to)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("%w: to must be YYYY-MM-DD", domain.ErrInvalidRange)
		}
		r.To = t
		if from == "" {
			r.From = t.AddDate(0, 0, -(DefaultRangeDays - 1))
		}
	}
	if from != "" {
		f, err := time.Parse(domain.DateLayout, from)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("%w: from must be YYYY-MM-DD", domain.ErrInvalidRange)
		}
		r.From = f
	}
	r = domain.NewDateRange(r.From, r.To)
	if err := r.Validate(); err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: from must not be after to and the range may span at most %d days",
			err, domain.MaxRangeDays)
	}
	return r, nil
}

func (h *Handlers) queryRange(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	return parseDateRange(q.Get("from"), q.Get("to"), h.now())
}

// parsePlatforms reads a comma-separated platform filter.
func parsePlatforms(raw string) ([]domain.Platform, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []domain.Platform
	seen := make(map[domain.Platform]bool)
	for _, part := range strings.Split(raw, ",") {
		p := domain.Platform(strings.TrimSpace(part))
		if p == "" || seen[p] {
			continue
		}
		if !p.Valid() {
			return nil, fmt.Errorf("unknown platform %q", p)
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
