// internal/assistant/queryplan/builder_test.go
package queryplan

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-assistant/internal/assistant/schema"
	"taskboard-assistant/internal/models"
)

var planNow = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(func() time.Time { return planNow })
}

func effectiveWith(base models.ExtractedEntities) models.EffectiveEntities {
	return models.EffectiveEntities{ExtractedEntities: base}
}

func TestBuildListTasksForPerson(t *testing.T) {
	b := newTestBuilder()

	plan, err := b.Build(models.IntentListTasksForPerson, effectiveWith(models.ExtractedEntities{
		EmployeeName: "Hamza Ali",
	}))
	require.NoError(t, err)

	assert.Equal(t, models.TargetTask, plan.Target)
	assert.Equal(t, "Hamza Ali", plan.Filters["assignee"])
	assert.Equal(t, schema.DefaultLimit(models.TargetTask), plan.Limit)
	assert.Equal(t, "due_date", plan.Sort.Column)
}

func TestBuildListTasksForPersonWithStatus(t *testing.T) {
	b := newTestBuilder()

	plan, err := b.Build(models.IntentListTasksForPerson, effectiveWith(models.ExtractedEntities{
		EmployeeName: "Maria Santos",
		StatusFilter: models.StatusCompleted,
	}))
	require.NoError(t, err)

	assert.Equal(t, string(models.StatusCompleted), plan.Filters["status"])
}

func TestBuildListTasksRequiresEmployee(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(models.IntentListTasksForPerson, effectiveWith(models.ExtractedEntities{}))
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestBuildSummarizeWorkloadUsesMaxLimit(t *testing.T) {
	b := newTestBuilder()

	plan, err := b.Build(models.IntentSummarizeWorkload, effectiveWith(models.ExtractedEntities{
		EmployeeName: "Hamza Ali",
	}))
	require.NoError(t, err)

	// Aggregates need the complete task list, not the display cap.
	assert.Equal(t, schema.MaxLimit(models.TargetTask), plan.Limit)
}

func TestBuildFindOverdue(t *testing.T) {
	b := newTestBuilder()

	plan, err := b.Build(models.IntentFindOverdue, effectiveWith(models.ExtractedEntities{
		EmployeeName: "Hamza Ali",
	}))
	require.NoError(t, err)

	assert.Equal(t, string(models.StatusCompleted), plan.Filters["status_not"])
	assert.Equal(t, planNow, plan.Filters["due_before"])
	assert.Equal(t, "Hamza Ali", plan.Filters["assignee"])
	assert.Equal(t, models.Sort{Column: "due_date", Direction: models.SortAsc}, plan.Sort)
}

func TestBuildFindCompleted(t *testing.T) {
	b := newTestBuilder()

	plan, err := b.Build(models.IntentFindCompleted, effectiveWith(models.ExtractedEntities{}))
	require.NoError(t, err)

	assert.Equal(t, string(models.StatusCompleted), plan.Filters["status"])
	assert.Equal(t, models.Sort{Column: "created_at", Direction: models.SortDesc}, plan.Sort)
}

func TestBuildProjectStatus(t *testing.T) {
	b := newTestBuilder()

	plan, err := b.Build(models.IntentProjectStatus, effectiveWith(models.ExtractedEntities{
		ProjectRef: "Apollo",
	}))
	require.NoError(t, err)

	assert.Equal(t, models.TargetProject, plan.Target)
	assert.Equal(t, "Apollo", plan.Filters["name"])
}

func TestBuildGeneralSearchNeedsFilters(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(models.IntentGeneralSearch, effectiveWith(models.ExtractedEntities{}))
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}

func TestBuildUnknownIntent(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(models.IntentUnknown, effectiveWith(models.ExtractedEntities{
		EmployeeName: "Hamza Ali",
	}))
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}

func TestBuildIncludeAllLiftsCap(t *testing.T) {
	b := newTestBuilder()

	plan, err := b.Build(models.IntentListTasksForPerson, effectiveWith(models.ExtractedEntities{
		EmployeeName: "Hamza Ali",
		IncludeAll:   true,
	}))
	require.NoError(t, err)
	assert.Equal(t, schema.MaxLimit(models.TargetTask), plan.Limit)
}

func TestBuildInvalidPriorityRejected(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(models.IntentFindOverdue, effectiveWith(models.ExtractedEntities{
		PriorityFilter: models.TaskPriority("catastrophic"),
	}))
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

// Every plan the builder emits stays inside the catalog allow-list, whatever
// entity combination comes in.
func TestBuildAllowListProperty(t *testing.T) {
	b := newTestBuilder()
	rng := rand.New(rand.NewSource(42))

	names := []string{"", "Hamza Ali", "Maria Santos"}
	projects := []string{"", "Apollo", "migration phase 2"}
	statuses := []models.TaskStatus{"", models.StatusTodo, models.StatusCompleted, models.StatusBlocked}
	priorities := []models.TaskPriority{"", models.PriorityHigh, models.PriorityUrgent}

	for i := 0; i < 500; i++ {
		effective := effectiveWith(models.ExtractedEntities{
			EmployeeName:   names[rng.Intn(len(names))],
			ProjectRef:     projects[rng.Intn(len(projects))],
			StatusFilter:   statuses[rng.Intn(len(statuses))],
			PriorityFilter: priorities[rng.Intn(len(priorities))],
			IncludeAll:     rng.Intn(2) == 0,
		})
		if rng.Intn(2) == 0 {
			effective.DateRange = &models.DateRange{End: planNow}
		}
		intent := models.AllIntents[rng.Intn(len(models.AllIntents))]

		plan, err := b.Build(intent, effective)
		if err != nil {
			isKnown := errorIsOneOf(err, ErrUnsupportedIntent, ErrInvalidFilter)
			assert.True(t, isKnown, "unexpected error class: %v", err)
			continue
		}

		for key := range plan.Filters {
			_, ok := schema.AllowedFilter(plan.Target, key)
			assert.True(t, ok, "filter %q leaked past the allow-list", key)
		}
		assert.True(t, schema.AllowedSort(plan.Target, plan.Sort.Column))
		assert.Greater(t, plan.Limit, 0)
		assert.LessOrEqual(t, plan.Limit, schema.MaxLimit(plan.Target))
	}
}

func errorIsOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
