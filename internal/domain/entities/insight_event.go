package entities

import "time"

// InsightEventType names the lifecycle events published on the event bus.
type InsightEventType string

const (
	InsightEventGenerated InsightEventType = "insight.generated"
	InsightEventFailed    InsightEventType = "insight.failed"
)

// InsightEvent notifies out-of-process consumers (SSE fan-out, dashboards)
// about generation outcomes. Publishing is best-effort and never blocks or
// fails a generation call.
type InsightEvent struct {
	ID        string           `json:"id"`
	Type      InsightEventType `json:"type"`
	InsightID string           `json:"insight_id,omitempty"`
	Category  InsightCategory  `json:"category"`
	Provider  string           `json:"provider,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
