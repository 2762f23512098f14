// Package schema is the static catalog of queryable entities: which tables
// the assistant may read, which filter keys map to which columns, and which
// sort columns are permitted. Everything downstream of the query builder is
// constrained by this allow-list.
package schema

import "taskboard-assistant/internal/models"

// FilterOp is the SQL comparison an allow-listed filter key compiles to.
type FilterOp string

const (
	OpEq     FilterOp = "eq"
	OpNotEq  FilterOp = "neq"
	OpILike  FilterOp = "ilike"
	OpBefore FilterOp = "before"
	OpAfter  FilterOp = "after"
)

// FilterSpec binds a filter key to its column and comparison.
type FilterSpec struct {
	Column string
	Op     FilterOp
}

// EntitySpec describes one queryable entity.
type EntitySpec struct {
	Table        string
	Columns      []string // selectable columns, fixed order
	Filters      map[string]FilterSpec
	SortColumns  map[string]bool
	DefaultSort  models.Sort
	DefaultLimit int
	MaxLimit     int
}

var catalog = map[models.TargetEntity]EntitySpec{
	models.TargetTask: {
		Table: "tasks",
		Columns: []string{
			"id", "title", "description", "status", "priority",
			"assignee", "project", "due_date", "created_at",
		},
		Filters: map[string]FilterSpec{
			"assignee":   {Column: "assignee", Op: OpILike},
			"project":    {Column: "project", Op: OpILike},
			"status":     {Column: "status", Op: OpEq},
			"status_not": {Column: "status", Op: OpNotEq},
			"priority":   {Column: "priority", Op: OpEq},
			"due_before": {Column: "due_date", Op: OpBefore},
			"due_after":  {Column: "due_date", Op: OpAfter},
		},
		SortColumns: map[string]bool{
			"due_date": true, "priority": true, "created_at": true, "title": true,
		},
		DefaultSort:  models.Sort{Column: "due_date", Direction: models.SortAsc},
		DefaultLimit: 25,
		MaxLimit:     500,
	},
	models.TargetProject: {
		Table: "projects",
		Columns: []string{
			"id", "name", "description", "status", "owner", "created_at",
		},
		Filters: map[string]FilterSpec{
			"name":   {Column: "name", Op: OpILike},
			"status": {Column: "status", Op: OpEq},
			"owner":  {Column: "owner", Op: OpILike},
		},
		SortColumns: map[string]bool{
			"name": true, "created_at": true,
		},
		DefaultSort:  models.Sort{Column: "name", Direction: models.SortAsc},
		DefaultLimit: 25,
		MaxLimit:     200,
	},
	models.TargetEmployee: {
		Table:   "employees",
		Columns: []string{"id", "name", "role"},
		Filters: map[string]FilterSpec{
			"name": {Column: "name", Op: OpILike},
		},
		SortColumns: map[string]bool{
			"name": true,
		},
		DefaultSort:  models.Sort{Column: "name", Direction: models.SortAsc},
		DefaultLimit: 50,
		MaxLimit:     200,
	},
}

// Lookup returns the spec for an entity.
func Lookup(entity models.TargetEntity) (EntitySpec, bool) {
	spec, ok := catalog[entity]
	return spec, ok
}

// AllowedFilter returns the filter spec for a key, if allow-listed.
func AllowedFilter(entity models.TargetEntity, key string) (FilterSpec, bool) {
	spec, ok := catalog[entity]
	if !ok {
		return FilterSpec{}, false
	}
	fs, ok := spec.Filters[key]
	return fs, ok
}

// AllowedSort reports whether a sort column is allow-listed for an entity.
func AllowedSort(entity models.TargetEntity, column string) bool {
	spec, ok := catalog[entity]
	if !ok {
		return false
	}
	return spec.SortColumns[column]
}

// FilterKeys returns every allow-listed filter key for an entity.
func FilterKeys(entity models.TargetEntity) []string {
	spec, ok := catalog[entity]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(spec.Filters))
	for k := range spec.Filters {
		keys = append(keys, k)
	}
	return keys
}

// DefaultLimit returns the default result cap for an entity.
func DefaultLimit(entity models.TargetEntity) int {
	if spec, ok := catalog[entity]; ok {
		return spec.DefaultLimit
	}
	return 25
}

// MaxLimit returns the hard cap an explicit "full list" request lifts to.
func MaxLimit(entity models.TargetEntity) int {
	if spec, ok := catalog[entity]; ok {
		return spec.MaxLimit
	}
	return 100
}
