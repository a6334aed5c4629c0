package model

import "time"

// ActivityKind classifies a recorded user action.
type ActivityKind string

const (
	ActivityLogin    ActivityKind = "login"
	ActivityDiscover ActivityKind = "discover"
	ActivityExport   ActivityKind = "export"
)

// ActivityEvent is one row of the dashboard's activity log.
type ActivityEvent struct {
	ID         string       `json:"id"`
	Username   string       `json:"username"`
	Kind       ActivityKind `json:"kind"`
	GroupID    string       `json:"group_id,omitempty"`
	Keywords   []string     `json:"keywords,omitempty"`
	Cities     []string     `json:"cities,omitempty"`
	Count      int          `json:"count"`
	OccurredAt time.Time    `json:"occurred_at"`
}
