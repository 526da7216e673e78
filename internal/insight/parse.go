package insight

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/adlens/internal/domain"
)

var categories = []domain.InsightCategory{
	domain.InsightPerformance,
	domain.InsightBudget,
	domain.InsightCreative,
	domain.InsightAudience,
	domain.InsightSEO,
	domain.InsightEngagement,
}

// DefaultMaxInsights caps how many insights one generation stores.
const DefaultMaxInsights = 10

// text accepts a JSON string or number.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	if string(b) == "null" {
		*t = ""
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("unexpected value %s", b)
	}
	*t = text(b)
	return nil
}

type rawInsight struct {
	Title          text `json:"title"`
	Description    text `json:"description"`
	Category       text `json:"category"`
	Priority       text `json:"priority"`
	Platform       text `json:"platform"`
	Recommendation text `json:"recommendation"`
	Impact         text `json:"impact"`
}

// ParseResponse extracts insights from an LLM reply. Markdown fences and
// prose around the JSON are ignored. Unknown categories become performance,
// unknown priorities medium; items without a title are dropped and the
// result is capped at limit.
func ParseResponse(reply string, limit int) ([]domain.Insight, error) {
	if limit <= 0 {
		limit = DefaultMaxInsights
	}
	body := extractJSON(stripFences(reply))
	if body == "" {
		return nil, fmt.Errorf("%w: no JSON found", ErrEmptyResponse)
	}

	var raw []rawInsight
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return nil, fmt.Errorf("decode insights: %w", err)
		}
	} else {
		var wrapper struct {
			Insights []rawInsight `json:"insights"`
		}
		if err := json.Unmarshal([]byte(body), &wrapper); err != nil {
			return nil, fmt.Errorf("decode insights: %w", err)
		}
		raw = wrapper.Insights
	}

	out := make([]domain.Insight, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(string(r.Title))
		if title == "" {
			continue
		}
		out = append(out, domain.Insight{
			Title:          title,
			Description:    strings.TrimSpace(string(r.Description)),
			Category:       normalizeCategory(string(r.Category)),
			Priority:       normalizePriority(string(r.Priority)),
			Platform:       normalizePlatform(string(r.Platform)),
			Recommendation: strings.TrimSpace(string(r.Recommendation)),
			Impact:         strings.TrimSpace(string(r.Impact)),
		})
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// extractJSON returns the first JSON value in s that looks like an insight
// payload: an object with an "insights" key or a non-empty array of
// objects. Bracketed prose such as "[last 30 days]" does not decode and is
// skipped.
func extractJSON(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err != nil {
			continue
		}
		if insightPayload(raw) {
			return string(raw)
		}
	}
	return ""
}

func insightPayload(raw json.RawMessage) bool {
	if raw[0] == '[' {
		var items []map[string]json.RawMessage
		return json.Unmarshal(raw, &items) == nil && len(items) > 0
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	_, ok := obj["insights"]
	return ok
}

func normalizeCategory(s string) domain.InsightCategory {
	c := domain.InsightCategory(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return domain.InsightPerformance
}

func normalizePriority(s string) domain.InsightPriority {
	p := domain.InsightPriority(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return domain.PriorityMedium
}

func normalizePlatform(s string) domain.Platform {
	p := domain.Platform(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return ""
}
