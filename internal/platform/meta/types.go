package meta

import (
	"encoding/json"

	"github.com/ignite/adlens/internal/platform"
)

type pagedResponse struct {
	Data   json.RawMessage `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type fbCampaign struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Status      string           `json:"status"`
	Objective   string           `json:"objective"`
	DailyBudget platform.Float64 `json:"daily_budget"`
}

type fbAction struct {
	ActionType string           `json:"action_type"`
	Value      platform.Float64 `json:"value"`
}

type fbInsight struct {
	CampaignID   string           `json:"campaign_id"`
	CampaignName string           `json:"campaign_name"`
	DateStart    string           `json:"date_start"`
	Impressions  platform.Int64   `json:"impressions"`
	Clicks       platform.Int64   `json:"clicks"`
	Spend        platform.Float64 `json:"spend"`
	Reach        platform.Int64   `json:"reach"`
	Actions      []fbAction       `json:"actions"`
	ActionValues []fbAction       `json:"action_values"`
}

type igMetric struct {
	Name   string `json:"name"`
	Values []struct {
		Value   platform.Int64 `json:"value"`
		EndTime string         `json:"end_time"`
	} `json:"values"`
}
