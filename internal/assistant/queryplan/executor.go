// internal/assistant/queryplan/executor.go
package queryplan

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"taskboard-assistant/internal/assistant/schema"
	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/models"
)

// Result holds the rows a plan produced. Exactly one of the slices is
// populated, matching the plan's target entity.
type Result struct {
	Tasks     []models.Task
	Projects  []models.Project
	Employees []models.Employee
	RowCount  int
}

// IDs returns the result identifiers in row order, for the session context.
func (r *Result) IDs() []string {
	ids := make([]string, 0, r.RowCount)
	for _, t := range r.Tasks {
		ids = append(ids, t.ID)
	}
	for _, p := range r.Projects {
		ids = append(ids, p.ID)
	}
	for _, e := range r.Employees {
		ids = append(ids, e.ID)
	}
	return ids
}

// Executor runs QueryPlans as single bounded reads. It consumes a plan
// exactly once and issues no writes.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
	logger  logger.Logger
}

func NewExecutor(db *sql.DB, timeout time.Duration, log logger.Logger) *Executor {
	return &Executor{
		db:      db,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "executor"}),
	}
}

// Execute renders the plan to one parameterized SELECT and runs it.
func (e *Executor) Execute(ctx context.Context, plan *models.QueryPlan) (*Result, error) {
	spec, ok := schema.Lookup(plan.Target)
	if !ok {
		return nil, fmt.Errorf("%w: entity %s", ErrInvalidFilter, plan.Target)
	}

	query, args := renderSQL(spec, plan)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("query timed out after %s: %w", e.timeout, err)
		}
		return nil, err
	}
	defer rows.Close()

	result, err := scanRows(rows, plan.Target)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("plan executed", map[string]interface{}{
		"target":   string(plan.Target),
		"rowCount": result.RowCount,
		"tookMs":   time.Since(start).Milliseconds(),
	})

	return result, nil
}

// renderSQL builds the SELECT text from catalog data only. Filter keys are
// iterated in sorted order so the generated SQL is deterministic.
func renderSQL(spec schema.EntitySpec, plan *models.QueryPlan) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(spec.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(spec.Table)

	keys := make([]string, 0, len(plan.Filters))
	for k := range plan.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(keys)+1)
	if len(keys) > 0 {
		sb.WriteString(" WHERE ")
		clauses := make([]string, 0, len(keys))
		for _, key := range keys {
			fs := spec.Filters[key]
			value := plan.Filters[key]

			placeholder := fmt.Sprintf("$%d", len(args)+1)
			switch fs.Op {
			case schema.OpEq:
				clauses = append(clauses, fmt.Sprintf("%s = %s", fs.Column, placeholder))
				args = append(args, value)
			case schema.OpNotEq:
				clauses = append(clauses, fmt.Sprintf("%s <> %s", fs.Column, placeholder))
				args = append(args, value)
			case schema.OpILike:
				clauses = append(clauses, fmt.Sprintf("%s ILIKE %s", fs.Column, placeholder))
				args = append(args, "%"+fmt.Sprintf("%v", value)+"%")
			case schema.OpBefore:
				clauses = append(clauses, fmt.Sprintf("%s < %s", fs.Column, placeholder))
				args = append(args, value)
			case schema.OpAfter:
				clauses = append(clauses, fmt.Sprintf("%s >= %s", fs.Column, placeholder))
				args = append(args, value)
			}
		}
		sb.WriteString(strings.Join(clauses, " AND "))
	}

	sb.WriteString(fmt.Sprintf(" ORDER BY %s %s", plan.Sort.Column, plan.Sort.Direction))
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)+1))
	args = append(args, plan.Limit)

	return sb.String(), args
}

func scanRows(rows *sql.Rows, target models.TargetEntity) (*Result, error) {
	result := &Result{}

	switch target {
	case models.TargetTask:
		for rows.Next() {
			var t models.Task
			var description, assignee, project sql.NullString
			var dueDate sql.NullTime
			if err := rows.Scan(&t.ID, &t.Title, &description, &t.Status, &t.Priority,
				&assignee, &project, &dueDate, &t.CreatedAt); err != nil {
				return nil, err
			}
			t.Description = description.String
			t.Assignee = assignee.String
			t.Project = project.String
			if dueDate.Valid {
				due := dueDate.Time
				t.DueDate = &due
			}
			result.Tasks = append(result.Tasks, t)
		}
		result.RowCount = len(result.Tasks)

	case models.TargetProject:
		for rows.Next() {
			var p models.Project
			var description, owner sql.NullString
			if err := rows.Scan(&p.ID, &p.Name, &description, &p.Status, &owner, &p.CreatedAt); err != nil {
				return nil, err
			}
			p.Description = description.String
			p.Owner = owner.String
			result.Projects = append(result.Projects, p)
		}
		result.RowCount = len(result.Projects)

	case models.TargetEmployee:
		for rows.Next() {
			var emp models.Employee
			var role sql.NullString
			if err := rows.Scan(&emp.ID, &emp.Name, &role); err != nil {
				return nil, err
			}
			emp.Role = role.String
			result.Employees = append(result.Employees, emp)
		}
		result.RowCount = len(result.Employees)
	}

	return result, rows.Err()
}
