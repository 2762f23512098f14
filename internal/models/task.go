// internal/models/task.go
package models

import "time"

// Task is a row from the externally owned tasks table, restricted to the
// columns the assistant is allowed to read.
type Task struct {
	ID          string       `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description,omitempty" db:"description"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	Assignee    string       `json:"assignee,omitempty" db:"assignee"`
	Project     string       `json:"project,omitempty" db:"project"`
	DueDate     *time.Time   `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
}

// DaysOverdue returns how many whole days the task is past due at now.
// Zero for tasks without a due date or not yet due.
func (t Task) DaysOverdue(now time.Time) int {
	if t.DueDate == nil || !t.DueDate.Before(now) {
		return 0
	}
	return int(now.Sub(*t.DueDate).Hours() / 24)
}

// Project is a row from the projects table.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Status      string    `json:"status" db:"status"`
	Owner       string    `json:"owner,omitempty" db:"owner"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Employee is a row from the employees table.
type Employee struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Role string `json:"role,omitempty" db:"role"`
}

// SemanticHit is one ranked result from the semantic retriever.
type SemanticHit struct {
	EntityID string  `json:"entityId"`
	Kind     string  `json:"kind"` // "task" or "project"
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
}
