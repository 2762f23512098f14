// internal/assistant/queryplan/executor_test.go
package queryplan

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-assistant/internal/assistant/schema"
	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func taskColumns() []string {
	return []string{"id", "title", "description", "status", "priority",
		"assignee", "project", "due_date", "created_at"}
}

func TestExecuteTaskPlan(t *testing.T) {
	db, mock := setupMockDB(t)
	exec := NewExecutor(db, 5*time.Second, logger.NewNoOpLogger())

	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Filter keys render in sorted order: assignee, due_before, status_not.
	mock.ExpectQuery(`SELECT id, title, description, status, priority, assignee, project, due_date, created_at FROM tasks WHERE assignee ILIKE \$1 AND due_date < \$2 AND status <> \$3 ORDER BY due_date ASC LIMIT \$4`).
		WithArgs("%Hamza Ali%", planNow, "completed", 25).
		WillReturnRows(sqlmock.NewRows(taskColumns()).
			AddRow("t-1", "Fix login bug", "oauth redirect loop", "in_progress", "high",
				"Hamza Ali", "Apollo", due, created).
			AddRow("t-2", "Update docs", nil, "todo", "low",
				"Hamza Ali", nil, nil, created))

	plan := &models.QueryPlan{
		Target: models.TargetTask,
		Filters: map[string]interface{}{
			"assignee":   "Hamza Ali",
			"status_not": "completed",
			"due_before": planNow,
		},
		Sort:  models.Sort{Column: "due_date", Direction: models.SortAsc},
		Limit: 25,
	}

	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, []string{"t-1", "t-2"}, result.IDs())
	assert.Equal(t, "Fix login bug", result.Tasks[0].Title)
	require.NotNil(t, result.Tasks[0].DueDate)
	assert.Nil(t, result.Tasks[1].DueDate)
	assert.Empty(t, result.Tasks[1].Project)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteProjectPlan(t *testing.T) {
	db, mock := setupMockDB(t)
	exec := NewExecutor(db, 5*time.Second, logger.NewNoOpLogger())

	created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, description, status, owner, created_at FROM projects WHERE name ILIKE \$1 ORDER BY name ASC LIMIT \$2`).
		WithArgs("%Apollo%", 25).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "status", "owner", "created_at"}).
			AddRow("p-1", "Apollo", "payments revamp", "active", "Maria Santos", created))

	plan := &models.QueryPlan{
		Target:  models.TargetProject,
		Filters: map[string]interface{}{"name": "Apollo"},
		Sort:    models.Sort{Column: "name", Direction: models.SortAsc},
		Limit:   25,
	}

	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, "Apollo", result.Projects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteNoFilters(t *testing.T) {
	db, mock := setupMockDB(t)
	exec := NewExecutor(db, 5*time.Second, logger.NewNoOpLogger())

	mock.ExpectQuery(`SELECT id, name, role FROM employees ORDER BY name ASC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "role"}).
			AddRow("e-1", "Hamza Ali", "engineer").
			AddRow("e-2", "Maria Santos", nil))

	plan := &models.QueryPlan{
		Target:  models.TargetEmployee,
		Filters: map[string]interface{}{},
		Sort:    models.Sort{Column: "name", Direction: models.SortAsc},
		Limit:   50,
	}

	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "engineer", result.Employees[0].Role)
	assert.Empty(t, result.Employees[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	exec := NewExecutor(db, 5*time.Second, logger.NewNoOpLogger())

	mock.ExpectQuery(`SELECT .+ FROM tasks`).
		WillReturnError(assert.AnError)

	plan := &models.QueryPlan{
		Target:  models.TargetTask,
		Filters: map[string]interface{}{"status": "completed"},
		Sort:    models.Sort{Column: "created_at", Direction: models.SortDesc},
		Limit:   25,
	}

	_, err := exec.Execute(context.Background(), plan)
	assert.Error(t, err)
}

func TestExecuteUnknownTarget(t *testing.T) {
	db, _ := setupMockDB(t)
	exec := NewExecutor(db, 5*time.Second, logger.NewNoOpLogger())

	plan := &models.QueryPlan{Target: models.TargetEntity("invoice")}

	_, err := exec.Execute(context.Background(), plan)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestRenderSQLDeterministicOrder(t *testing.T) {
	plan := &models.QueryPlan{
		Target: models.TargetTask,
		Filters: map[string]interface{}{
			"status_not": "completed",
			"assignee":   "Hamza Ali",
			"due_before": planNow,
		},
		Sort:  models.Sort{Column: "due_date", Direction: models.SortAsc},
		Limit: 25,
	}

	spec, ok := schema.Lookup(models.TargetTask)
	require.True(t, ok)

	first, firstArgs := renderSQL(spec, plan)
	for i := 0; i < 20; i++ {
		query, args := renderSQL(spec, plan)
		assert.Equal(t, first, query)
		assert.Equal(t, firstArgs, args)
	}
	assert.Contains(t, first, "assignee ILIKE $1 AND due_date < $2 AND status <> $3")
	assert.Contains(t, first, "LIMIT $4")
	assert.Equal(t, "%Hamza Ali%", firstArgs[0])
}
