// Package queryplan turns (intent, effective entities) into a parameterized,
// read-only QueryPlan constrained by the schema catalog allow-list, and
// executes plans against the relational store. Raw user text never reaches
// SQL: only catalog columns and parameter values do.
package queryplan

import (
	"errors"
	"fmt"
	"time"

	"taskboard-assistant/internal/assistant/schema"
	"taskboard-assistant/internal/models"
)

var (
	// ErrUnsupportedIntent means no plan template exists; the orchestrator
	// falls back to the semantic retriever.
	ErrUnsupportedIntent = errors.New("UNSUPPORTED_INTENT")
	// ErrInvalidFilter means an entity value could not be mapped to an
	// allow-listed column value.
	ErrInvalidFilter = errors.New("INVALID_FILTER")
)

// Builder builds QueryPlans. The clock is injected so "overdue right now"
// is testable.
type Builder struct {
	now func() time.Time
}

func NewBuilder(nowFn func() time.Time) *Builder {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Builder{now: nowFn}
}

// Build constructs a plan for the intent. Every filter key set here is
// allow-listed in the catalog; Build double-checks before returning.
func (b *Builder) Build(intent models.Intent, effective models.EffectiveEntities) (*models.QueryPlan, error) {
	var plan *models.QueryPlan
	var err error

	switch intent {
	case models.IntentListTasksForPerson:
		plan, err = b.listTasksForPerson(effective)
	case models.IntentSummarizeWorkload:
		plan, err = b.summarizeWorkload(effective)
	case models.IntentFindOverdue:
		plan, err = b.findByState(effective, "", true)
	case models.IntentFindCompleted:
		plan, err = b.findByState(effective, models.StatusCompleted, false)
	case models.IntentFindInProgress:
		plan, err = b.findByState(effective, models.StatusInProgress, false)
	case models.IntentProjectStatus:
		plan, err = b.projectStatus(effective)
	case models.IntentGeneralSearch:
		plan, err = b.generalSearch(effective)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIntent, intent)
	}

	if err != nil {
		return nil, err
	}

	if err := validateAgainstCatalog(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (b *Builder) listTasksForPerson(effective models.EffectiveEntities) (*models.QueryPlan, error) {
	if effective.EmployeeName == "" {
		return nil, fmt.Errorf("%w: no employee to list tasks for", ErrInvalidFilter)
	}

	filters := map[string]interface{}{
		"assignee": effective.EmployeeName,
	}
	addOptionalTaskFilters(filters, effective)

	return &models.QueryPlan{
		Target:  models.TargetTask,
		Filters: filters,
		Sort:    models.Sort{Column: "due_date", Direction: models.SortAsc},
		Limit:   b.limitFor(models.TargetTask, effective.IncludeAll),
	}, nil
}

// summarizeWorkload reads the person's full task list so the aggregates are
// complete; the display cap applies only to item rendering downstream.
func (b *Builder) summarizeWorkload(effective models.EffectiveEntities) (*models.QueryPlan, error) {
	if effective.EmployeeName == "" {
		return nil, fmt.Errorf("%w: no employee to summarize", ErrInvalidFilter)
	}

	return &models.QueryPlan{
		Target: models.TargetTask,
		Filters: map[string]interface{}{
			"assignee": effective.EmployeeName,
		},
		Sort:  models.Sort{Column: "due_date", Direction: models.SortAsc},
		Limit: schema.MaxLimit(models.TargetTask),
	}, nil
}

// findByState covers find_overdue (overdue=true), find_completed, and
// find_in_progress. Overdue means due before now and not completed; ascending
// due-date order puts the most overdue task first.
func (b *Builder) findByState(effective models.EffectiveEntities, status models.TaskStatus, overdue bool) (*models.QueryPlan, error) {
	filters := map[string]interface{}{}

	if overdue {
		filters["status_not"] = string(models.StatusCompleted)
		filters["due_before"] = b.now()
	} else {
		filters["status"] = string(status)
	}

	if effective.EmployeeName != "" {
		filters["assignee"] = effective.EmployeeName
	}
	if effective.ProjectRef != "" {
		filters["project"] = effective.ProjectRef
	}
	if effective.PriorityFilter != "" {
		if !validPriority(effective.PriorityFilter) {
			return nil, fmt.Errorf("%w: priority %q", ErrInvalidFilter, effective.PriorityFilter)
		}
		filters["priority"] = string(effective.PriorityFilter)
	}

	sort := models.Sort{Column: "due_date", Direction: models.SortAsc}
	if !overdue {
		sort = models.Sort{Column: "created_at", Direction: models.SortDesc}
	}

	return &models.QueryPlan{
		Target:  models.TargetTask,
		Filters: filters,
		Sort:    sort,
		Limit:   b.limitFor(models.TargetTask, effective.IncludeAll),
	}, nil
}

func (b *Builder) projectStatus(effective models.EffectiveEntities) (*models.QueryPlan, error) {
	filters := map[string]interface{}{}
	if effective.ProjectRef != "" {
		filters["name"] = effective.ProjectRef
	}

	return &models.QueryPlan{
		Target:  models.TargetProject,
		Filters: filters,
		Sort:    models.Sort{Column: "name", Direction: models.SortAsc},
		Limit:   b.limitFor(models.TargetProject, effective.IncludeAll),
	}, nil
}

func (b *Builder) generalSearch(effective models.EffectiveEntities) (*models.QueryPlan, error) {
	filters := map[string]interface{}{}
	if effective.EmployeeName != "" {
		filters["assignee"] = effective.EmployeeName
	}
	if effective.ProjectRef != "" {
		filters["project"] = effective.ProjectRef
	}
	addOptionalTaskFilters(filters, effective)

	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: nothing to search on", ErrUnsupportedIntent)
	}

	return &models.QueryPlan{
		Target:  models.TargetTask,
		Filters: filters,
		Sort:    models.Sort{Column: "due_date", Direction: models.SortAsc},
		Limit:   b.limitFor(models.TargetTask, effective.IncludeAll),
	}, nil
}

// addOptionalTaskFilters maps status/priority/date entities onto task filters.
func addOptionalTaskFilters(filters map[string]interface{}, effective models.EffectiveEntities) {
	if effective.StatusFilter != "" && validStatus(effective.StatusFilter) {
		filters["status"] = string(effective.StatusFilter)
	}
	if effective.PriorityFilter != "" && validPriority(effective.PriorityFilter) {
		filters["priority"] = string(effective.PriorityFilter)
	}
	if effective.DateRange != nil {
		if !effective.DateRange.Start.IsZero() {
			filters["due_after"] = effective.DateRange.Start
		}
		if !effective.DateRange.End.IsZero() {
			filters["due_before"] = effective.DateRange.End
		}
	}
}

// limitFor applies the cap policy: catalog default, lifted to the catalog
// maximum when the user explicitly asked for the full list.
func (b *Builder) limitFor(target models.TargetEntity, includeAll bool) int {
	if includeAll {
		return schema.MaxLimit(target)
	}
	return schema.DefaultLimit(target)
}

func validStatus(s models.TaskStatus) bool {
	switch s {
	case models.StatusTodo, models.StatusInProgress, models.StatusCompleted, models.StatusBlocked:
		return true
	}
	return false
}

func validPriority(p models.TaskPriority) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		return true
	}
	return false
}

// validateAgainstCatalog is the final guard: a plan never leaves the builder
// with a filter key or sort column outside the catalog allow-list.
func validateAgainstCatalog(plan *models.QueryPlan) error {
	for key := range plan.Filters {
		if _, ok := schema.AllowedFilter(plan.Target, key); !ok {
			return fmt.Errorf("%w: filter %q not allow-listed for %s", ErrInvalidFilter, key, plan.Target)
		}
	}
	if !schema.AllowedSort(plan.Target, plan.Sort.Column) {
		return fmt.Errorf("%w: sort column %q not allow-listed for %s", ErrInvalidFilter, plan.Sort.Column, plan.Target)
	}
	if plan.Limit <= 0 || plan.Limit > schema.MaxLimit(plan.Target) {
		return fmt.Errorf("%w: limit %d out of range for %s", ErrInvalidFilter, plan.Limit, plan.Target)
	}
	return nil
}
