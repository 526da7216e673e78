package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/adlens/internal/domain"
	"github.com/ignite/adlens/internal/pkg/httpretry"
)

// NewHTTPClient returns the retrying client every connector uses.
func NewHTTPClient(timeout time.Duration) httpretry.HTTPDoer {
	return httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3)
}

// Request describes one authenticated API call.
type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Body    any
	Token   string
	Headers map[string]string
}

// Do executes req through client and decodes a 2xx JSON body into out.
// Non-2xx responses become *APIError.
func Do(ctx context.Context, client httpretry.HTTPDoer, p domain.Platform, req Request, out any) error {
	fullURL := req.URL
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + req.Params.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(p, resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", p, err)
	}
	return nil
}

// Int64 decodes integers sent either as JSON numbers or quoted strings.
type Int64 int64

func (n *Int64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		v = int64(f)
	}
	*n = Int64(v)
	return nil
}

// Float64 decodes floats sent either as JSON numbers or quoted strings.
type Float64 float64

func (f *Float64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = Float64(v)
	return nil
}

// Collector accumulates daily rows per external campaign preserving the
// order in which campaigns were first seen.
type Collector struct {
	order []string
	byID  map[string]*CampaignData
	days  map[string]map[time.Time]*MetricRow
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		byID: make(map[string]*CampaignData),
		days: make(map[string]map[time.Time]*MetricRow),
	}
}

// Campaign returns the campaign for id, creating it on first use.
func (c *Collector) Campaign(id string) *CampaignData {
	if cd, ok := c.byID[id]; ok {
		return cd
	}
	cd := &CampaignData{ExternalID: id}
	c.byID[id] = cd
	c.days[id] = make(map[time.Time]*MetricRow)
	c.order = append(c.order, id)
	return cd
}

// Day returns the metric row for campaign id on day, creating it on first use.
func (c *Collector) Day(id string, day time.Time) *MetricRow {
	c.Campaign(id)
	day = domain.Day(day)
	row, ok := c.days[id][day]
	if !ok {
		row = &MetricRow{Date: day}
		c.days[id][day] = row
	}
	return row
}

// Result returns the campaigns with their rows sorted by date.
func (c *Collector) Result() []CampaignData {
	out := make([]CampaignData, 0, len(c.order))
	for _, id := range c.order {
		cd := *c.byID[id]
		cd.Daily = make([]MetricRow, 0, len(c.days[id]))
		for _, row := range c.days[id] {
			cd.Daily = append(cd.Daily, *row)
		}
		sort.Slice(cd.Daily, func(i, j int) bool { return cd.Daily[i].Date.Before(cd.Daily[j].Date) })
		out = append(out, cd)
	}
	return out
}
