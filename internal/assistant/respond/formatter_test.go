// internal/assistant/respond/formatter_test.go
package respond

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-assistant/internal/assistant/queryplan"
	"taskboard-assistant/internal/models"
)

var formatNow = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

func newTestFormatter() *Formatter {
	return NewFormatter(10, func() time.Time { return formatNow })
}

func taskWithDue(id, title string, status models.TaskStatus, priority models.TaskPriority, due time.Time) models.Task {
	return models.Task{
		ID: id, Title: title, Status: status, Priority: priority, DueDate: &due,
	}
}

func effective(name string) models.EffectiveEntities {
	return models.EffectiveEntities{
		ExtractedEntities: models.ExtractedEntities{EmployeeName: name},
	}
}

func TestFormatOverdueTasks(t *testing.T) {
	f := newTestFormatter()

	result := &queryplan.Result{
		Tasks: []models.Task{
			taskWithDue("t-1", "Fix login bug", models.StatusInProgress, models.PriorityHigh,
				formatNow.AddDate(0, 0, -10)),
			taskWithDue("t-2", "Update docs", models.StatusTodo, models.PriorityLow,
				formatNow.AddDate(0, 0, -2)),
		},
		RowCount: 2,
	}

	payload := f.Format(models.IntentFindOverdue, result, effective("Hamza Ali"))

	assert.True(t, payload.Success)
	assert.Equal(t, models.SourceStructuredQuery, payload.Source)
	assert.Contains(t, payload.Response, "2 overdue tasks for Hamza Ali")
	assert.Contains(t, payload.Response, "overdue by 10 days")
	assert.Contains(t, payload.Response, "overdue by 2 days")
	assert.Equal(t, 2, payload.StructuredData["count"])
}

func TestFormatZeroRows(t *testing.T) {
	f := newTestFormatter()

	payload := f.Format(models.IntentFindOverdue, &queryplan.Result{}, effective("Hamza Ali"))

	assert.True(t, payload.Success)
	assert.Contains(t, payload.Response, "no overdue tasks")
	assert.Contains(t, payload.Response, "Hamza Ali")
	assert.Equal(t, 0, payload.StructuredData["count"])
}

func TestFormatDisplayCap(t *testing.T) {
	f := newTestFormatter()

	result := &queryplan.Result{}
	for i := 0; i < 14; i++ {
		result.Tasks = append(result.Tasks, models.Task{
			ID:    fmt.Sprintf("t-%d", i),
			Title: fmt.Sprintf("Task %d", i),
		})
	}
	result.RowCount = 14

	payload := f.Format(models.IntentListTasksForPerson, result, effective("Maria Santos"))

	assert.Contains(t, payload.Response, "and 4 more")
	assert.Contains(t, payload.Response, "full list")
	assert.Equal(t, 14, payload.StructuredData["count"])
	assert.Equal(t, 10, payload.StructuredData["shown"])
	assert.Equal(t, 4, payload.StructuredData["truncated"])
}

func TestFormatIncludeAllBypassesCap(t *testing.T) {
	f := newTestFormatter()

	result := &queryplan.Result{}
	for i := 0; i < 14; i++ {
		result.Tasks = append(result.Tasks, models.Task{ID: fmt.Sprintf("t-%d", i), Title: "x"})
	}
	result.RowCount = 14

	eff := effective("Maria Santos")
	eff.IncludeAll = true
	payload := f.Format(models.IntentListTasksForPerson, result, eff)

	assert.NotContains(t, payload.Response, "more")
	assert.Equal(t, 14, payload.StructuredData["shown"])
	assert.Equal(t, 0, payload.StructuredData["truncated"])
}

func TestFormatWorkloadNarrativeAndInsights(t *testing.T) {
	f := newTestFormatter()

	result := &queryplan.Result{
		Tasks: []models.Task{
			taskWithDue("t-1", "A", models.StatusInProgress, models.PriorityHigh, formatNow.AddDate(0, 0, -9)),
			taskWithDue("t-2", "B", models.StatusTodo, models.PriorityUrgent, formatNow.AddDate(0, 0, 3)),
			{ID: "t-3", Title: "C", Status: models.StatusBlocked, Priority: models.PriorityMedium},
			{ID: "t-4", Title: "D", Status: models.StatusCompleted, Priority: models.PriorityLow},
		},
		RowCount: 4,
	}

	payload := f.Format(models.IntentSummarizeWorkload, result, effective("Maria Santos"))

	assert.Contains(t, payload.Response, "Maria Santos has 4 tasks in total: 3 open, 1 completed.")
	assert.Contains(t, payload.Response, "1 task overdue by more than 7 days")
	assert.Contains(t, payload.Response, "1 task currently blocked")

	insights, ok := payload.StructuredData["insights"].([]string)
	require.True(t, ok)
	assert.NotEmpty(t, insights)
}

func TestFormatWorkloadHighPriorityShare(t *testing.T) {
	f := newTestFormatter()

	result := &queryplan.Result{
		Tasks: []models.Task{
			{ID: "t-1", Status: models.StatusTodo, Priority: models.PriorityHigh},
			{ID: "t-2", Status: models.StatusTodo, Priority: models.PriorityUrgent},
			{ID: "t-3", Status: models.StatusTodo, Priority: models.PriorityLow},
		},
		RowCount: 3,
	}

	payload := f.Format(models.IntentSummarizeWorkload, result, effective("Hamza Ali"))
	assert.Contains(t, payload.Response, "high or urgent priority (2 of 3)")
}

func TestFormatSingleProject(t *testing.T) {
	f := newTestFormatter()

	result := &queryplan.Result{
		Projects: []models.Project{{
			ID: "p-1", Name: "Apollo", Status: "active", Owner: "Maria Santos",
			Description: "Payments revamp.",
		}},
		RowCount: 1,
	}

	payload := f.Format(models.IntentProjectStatus, result, models.EffectiveEntities{})

	assert.Contains(t, payload.Response, "Project Apollo is active.")
	assert.Contains(t, payload.Response, "Owned by Maria Santos.")
}

func TestFormatProjectNotFound(t *testing.T) {
	f := newTestFormatter()

	eff := models.EffectiveEntities{
		ExtractedEntities: models.ExtractedEntities{ProjectRef: "Zeus"},
	}
	payload := f.Format(models.IntentProjectStatus, &queryplan.Result{}, eff)

	assert.True(t, payload.Success)
	assert.Contains(t, payload.Response, `"Zeus"`)
}

func TestFormatHits(t *testing.T) {
	f := newTestFormatter()

	hits := []models.SemanticHit{
		{EntityID: "t-1", Kind: "task", Title: "Fix login bug", Score: 0.82},
		{EntityID: "p-1", Kind: "project", Title: "Apollo", Score: 0.55},
	}

	payload := f.FormatHits("login problems", hits)

	assert.True(t, payload.Success)
	assert.Equal(t, models.SourceSemanticFallback, payload.Source)
	assert.Contains(t, payload.Response, "Fix login bug")
	assert.Equal(t, 2, payload.StructuredData["count"])
}

func TestFormatHitsEmpty(t *testing.T) {
	f := newTestFormatter()

	payload := f.FormatHits("xyz123", nil)

	assert.True(t, payload.Success)
	assert.Equal(t, models.SourceNone, payload.Source)
	assert.Contains(t, payload.Response, "xyz123")
	assert.Equal(t, 0, payload.StructuredData["count"])
}

func TestStatusBreakdown(t *testing.T) {
	tasks := []models.Task{
		{Status: models.StatusTodo},
		{Status: models.StatusTodo},
		{Status: models.StatusCompleted},
	}
	b := statusBreakdown(tasks)
	assert.Equal(t, 2, b["todo"])
	assert.Equal(t, 1, b["completed"])
}

func TestLargestBucketTieBreaksAlphabetically(t *testing.T) {
	name, n := largestBucket(map[string]int{"zeta": 2, "alpha": 2})
	assert.Equal(t, "alpha", name)
	assert.Equal(t, 2, n)
}

func TestFormatTaskLinesShowDueDates(t *testing.T) {
	f := newTestFormatter()

	result := &queryplan.Result{
		Tasks: []models.Task{
			taskWithDue("t-1", "Ship release", models.StatusInProgress, models.PriorityHigh,
				formatNow.AddDate(0, 0, 5)),
		},
		RowCount: 1,
	}

	payload := f.Format(models.IntentListTasksForPerson, result, effective("Hamza Ali"))
	assert.True(t, strings.Contains(payload.Response, "due Mar 9"))
}
