// internal/models/audit.go
package models

import "time"

// Outcome classifies how a request ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means the answer was produced by a fallback path after
	// the primary path failed (recovered error).
	OutcomePartial Outcome = "partial"
	OutcomeError   Outcome = "error"
)

// AuditRecord captures one request end to end. Append-only: written once per
// request, including failed ones, and never mutated afterward.
type AuditRecord struct {
	ID             string             `json:"id"`
	SessionID      string             `json:"sessionId"`
	Prompt         string             `json:"prompt"`
	Entities       ExtractedEntities  `json:"entities"`
	Intent         Intent             `json:"intent"`
	Confidence     float64            `json:"confidence"`
	Path           ClassificationPath `json:"path,omitempty"`
	Plan           string             `json:"plan,omitempty"` // serialized QueryPlan
	SemanticUsed   bool               `json:"semanticUsed"`
	RowCount       int                `json:"rowCount"`
	DurationMillis int64              `json:"durationMs"`
	Outcome        Outcome            `json:"outcome"`
	ErrorCode      string             `json:"errorCode,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
}
