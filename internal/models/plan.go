// internal/models/plan.go
package models

// TargetEntity names the queryable entity a plan runs against.
type TargetEntity string

const (
	TargetTask     TargetEntity = "task"
	TargetProject  TargetEntity = "project"
	TargetEmployee TargetEntity = "employee"
)

// SortDirection for a plan's ORDER BY clause.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Sort is an allow-listed sort column plus direction.
type Sort struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// QueryPlan is a parameterized, read-only query description. Filter keys are
// always a subset of the schema catalog's allow-list for the target entity;
// values are carried as parameters and never interpolated into SQL text.
// Immutable once built.
type QueryPlan struct {
	Target  TargetEntity           `json:"target"`
	Filters map[string]interface{} `json:"filters"`
	Sort    Sort                   `json:"sort"`
	Limit   int                    `json:"limit"`
}
