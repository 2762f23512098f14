// internal/models/entities.go
package models

import "time"

// TaskStatus values mirror the dashboard's task lifecycle.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusBlocked    TaskStatus = "blocked"
)

// TaskPriority values mirror the dashboard's priority scale.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// DateRange is a resolved half-open [Start, End) window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// QueryRequest is one incoming user message. Immutable once created.
type QueryRequest struct {
	ID          string    `json:"id"`
	RawText     string    `json:"rawText"`
	SessionID   string    `json:"sessionId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ExtractedEntities holds the structured values found in free text.
// All fields are optional; absence of a signal is an empty field, not an error.
type ExtractedEntities struct {
	EmployeeName   string       `json:"employeeName,omitempty"`
	ProjectRef     string       `json:"projectRef,omitempty"`
	StatusFilter   TaskStatus   `json:"statusFilter,omitempty"`
	PriorityFilter TaskPriority `json:"priorityFilter,omitempty"`
	DateRange      *DateRange   `json:"dateRange,omitempty"`
	// IncludeAll is set when the user explicitly asks for the full list
	// ("full list", "everything"). Derived once here; never re-matched
	// against the raw text downstream.
	IncludeAll bool `json:"includeAll,omitempty"`
}

// IsEmpty reports whether extraction found no signal at all.
func (e ExtractedEntities) IsEmpty() bool {
	return e.EmployeeName == "" &&
		e.ProjectRef == "" &&
		e.StatusFilter == "" &&
		e.PriorityFilter == "" &&
		e.DateRange == nil
}

// EffectiveEntities is the result of merging freshly extracted entities with
// the session's conversation context.
type EffectiveEntities struct {
	ExtractedEntities
	// FromContext lists field names that were filled in from session context
	// rather than the current message, for auditing.
	FromContext []string `json:"fromContext,omitempty"`
}

// ConversationContext is the per-session short-term memory.
type ConversationContext struct {
	LastEmployee  string    `json:"lastEmployee,omitempty"`
	LastIntent    Intent    `json:"lastIntent,omitempty"`
	LastResultIDs []string  `json:"lastResultIds,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
