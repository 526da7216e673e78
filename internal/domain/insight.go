package domain

import "time"

// InsightCategory classifies an AI insight.
type InsightCategory string

const (
	InsightPerformance InsightCategory = "performance"
	InsightBudget      InsightCategory = "budget"
	InsightCreative    InsightCategory = "creative"
	InsightAudience    InsightCategory = "audience"
	InsightSEO         InsightCategory = "seo"
	InsightEngagement  InsightCategory = "engagement"
)

// Valid reports whether c is a known category.
func (c InsightCategory) Valid() bool {
	switch c {
	case InsightPerformance, InsightBudget, InsightCreative, InsightAudience, InsightSEO, InsightEngagement:
		return true
	}
	return false
}

// InsightPriority ranks how urgently an insight should be acted on.
type InsightPriority string

const (
	PriorityHigh   InsightPriority = "high"
	PriorityMedium InsightPriority = "medium"
	PriorityLow    InsightPriority = "low"
)

// Valid reports whether p is a known priority.
func (p InsightPriority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Rank orders priorities high → low for sorting.
func (p InsightPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// InsightStatus tracks what the user did with an insight.
type InsightStatus string

const (
	InsightNew       InsightStatus = "new"
	InsightDismissed InsightStatus = "dismissed"
	InsightApplied   InsightStatus = "applied"
)

// Valid reports whether s is a known status.
func (s InsightStatus) Valid() bool {
	return s == InsightNew || s == InsightDismissed || s == InsightApplied
}

// Insight is a stored natural-language recommendation generated from
// aggregated metrics.
type Insight struct {
	ID             string          `json:"id" db:"id"`
	WorkspaceID    string          `json:"workspace_id" db:"workspace_id"`
	Title          string          `json:"title" db:"title"`
	Description    string          `json:"description" db:"description"`
	Category       InsightCategory `json:"category" db:"category"`
	Priority       InsightPriority `json:"priority" db:"priority"`
	Platform       Platform        `json:"platform,omitempty" db:"platform"`
	Recommendation string          `json:"recommendation" db:"recommendation"`
	Impact         string          `json:"impact,omitempty" db:"impact"`
	Status         InsightStatus   `json:"status" db:"status"`
	Provider       string          `json:"provider" db:"provider"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
