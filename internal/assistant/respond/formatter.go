// internal/assistant/respond/formatter.go

// Package respond renders query results into the assistant's answer payload:
// a human-readable summary plus structured data the dashboard can render
// directly. Formatting never drops data silently: anything past the display
// cap is reported as a count with a hint for getting the full list.
package respond

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"taskboard-assistant/internal/assistant/queryplan"
	"taskboard-assistant/internal/models"
)

// Formatter builds ResponsePayloads. The clock is injected so overdue-day
// arithmetic is testable.
type Formatter struct {
	displayCap int
	now        func() time.Time
}

func NewFormatter(displayCap int, nowFn func() time.Time) *Formatter {
	if displayCap <= 0 {
		displayCap = 10
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Formatter{displayCap: displayCap, now: nowFn}
}

// Format renders a structured-query result for the given intent.
func (f *Formatter) Format(intent models.Intent, result *queryplan.Result, effective models.EffectiveEntities) *models.ResponsePayload {
	payload := &models.ResponsePayload{
		Success:    true,
		IntentType: string(intent),
		Source:     models.SourceStructuredQuery,
	}

	if result == nil || result.RowCount == 0 {
		payload.Response = f.zeroRowMessage(intent, effective)
		payload.StructuredData = map[string]interface{}{"count": 0}
		return payload
	}

	switch {
	case intent == models.IntentSummarizeWorkload:
		f.formatWorkload(payload, result, effective)
	case len(result.Projects) > 0:
		f.formatProjects(payload, result)
	case len(result.Employees) > 0:
		f.formatEmployees(payload, result)
	default:
		f.formatTasks(payload, intent, result, effective)
	}

	return payload
}

// FormatHits renders semantic-retriever hits.
func (f *Formatter) FormatHits(prompt string, hits []models.SemanticHit) *models.ResponsePayload {
	payload := &models.ResponsePayload{
		Success:    true,
		IntentType: string(models.IntentGeneralSearch),
		Source:     models.SourceSemanticFallback,
	}

	if len(hits) == 0 {
		payload.Source = models.SourceNone
		payload.Response = fmt.Sprintf("I couldn't find anything matching %q. Try mentioning a person, project, or task status.", prompt)
		payload.StructuredData = map[string]interface{}{"count": 0}
		return payload
	}

	lines := make([]string, 0, len(hits))
	items := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		lines = append(lines, fmt.Sprintf("- %s (%s)", hit.Title, hit.Kind))
		items = append(items, map[string]interface{}{
			"id":    hit.EntityID,
			"kind":  hit.Kind,
			"title": hit.Title,
			"score": hit.Score,
		})
	}

	payload.Response = fmt.Sprintf("I couldn't map that to a specific query, but these look related:\n%s",
		strings.Join(lines, "\n"))
	payload.StructuredData = map[string]interface{}{
		"count":   len(hits),
		"matches": items,
	}
	return payload
}

func (f *Formatter) formatTasks(payload *models.ResponsePayload, intent models.Intent, result *queryplan.Result, effective models.EffectiveEntities) {
	tasks := result.Tasks
	now := f.now()

	shown := tasks
	truncated := 0
	if !effective.IncludeAll && len(shown) > f.displayCap {
		truncated = len(shown) - f.displayCap
		shown = shown[:f.displayCap]
	}

	var sb strings.Builder
	sb.WriteString(f.taskHeadline(intent, len(tasks), effective))
	sb.WriteString("\n")
	for _, t := range shown {
		sb.WriteString(fmt.Sprintf("- %s [%s/%s]", t.Title, t.Status, t.Priority))
		if days := t.DaysOverdue(now); days > 0 {
			sb.WriteString(fmt.Sprintf(" — overdue by %d day%s", days, plural(days)))
		} else if t.DueDate != nil {
			sb.WriteString(fmt.Sprintf(" — due %s", t.DueDate.Format("Jan 2")))
		}
		sb.WriteString("\n")
	}
	if truncated > 0 {
		sb.WriteString(fmt.Sprintf("...and %d more. Ask for the full list to see everything.", truncated))
	}

	items := make([]map[string]interface{}, 0, len(shown))
	for _, t := range shown {
		item := map[string]interface{}{
			"id":       t.ID,
			"title":    t.Title,
			"status":   string(t.Status),
			"priority": string(t.Priority),
		}
		if t.Assignee != "" {
			item["assignee"] = t.Assignee
		}
		if t.DueDate != nil {
			item["due_date"] = t.DueDate.Format(time.RFC3339)
		}
		if days := t.DaysOverdue(now); days > 0 {
			item["days_overdue"] = days
		}
		items = append(items, item)
	}

	payload.Response = strings.TrimRight(sb.String(), "\n")
	payload.StructuredData = map[string]interface{}{
		"count":       len(tasks),
		"shown":       len(shown),
		"truncated":   truncated,
		"tasks":       items,
		"by_status":   statusBreakdown(tasks),
		"by_priority": priorityBreakdown(tasks),
	}
}

func (f *Formatter) formatWorkload(payload *models.ResponsePayload, result *queryplan.Result, effective models.EffectiveEntities) {
	tasks := result.Tasks
	now := f.now()
	name := effective.EmployeeName
	if name == "" {
		name = "this person"
	}

	byStatus := statusBreakdown(tasks)
	open := len(tasks) - byStatus[string(models.StatusCompleted)]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s has %d task%s in total: %d open, %d completed.",
		name, len(tasks), plural(len(tasks)), open, byStatus[string(models.StatusCompleted)]))

	insights := workloadInsights(tasks, now)
	if len(insights) > 0 {
		sb.WriteString("\nKey points:")
		for _, insight := range insights {
			sb.WriteString("\n- " + insight)
		}
	}

	payload.Response = sb.String()
	payload.StructuredData = map[string]interface{}{
		"count":       len(tasks),
		"open":        open,
		"by_status":   byStatus,
		"by_priority": priorityBreakdown(tasks),
		"insights":    insights,
	}
}

// workloadInsights applies simple aggregate rules; each rule contributes at
// most one bullet.
func workloadInsights(tasks []models.Task, now time.Time) []string {
	var insights []string

	longOverdue := 0
	for _, t := range tasks {
		if t.DaysOverdue(now) > 7 && t.Status != models.StatusCompleted {
			longOverdue++
		}
	}
	if longOverdue > 0 {
		insights = append(insights, fmt.Sprintf("%d task%s overdue by more than 7 days", longOverdue, plural(longOverdue)))
	}

	highPriority := 0
	for _, t := range tasks {
		if (t.Priority == models.PriorityHigh || t.Priority == models.PriorityUrgent) &&
			t.Status != models.StatusCompleted {
			highPriority++
		}
	}
	if len(tasks) > 0 && highPriority*2 > len(tasks) {
		insights = append(insights, fmt.Sprintf("over half the workload is high or urgent priority (%d of %d)", highPriority, len(tasks)))
	}

	blocked := 0
	for _, t := range tasks {
		if t.Status == models.StatusBlocked {
			blocked++
		}
	}
	if blocked > 0 {
		insights = append(insights, fmt.Sprintf("%d task%s currently blocked", blocked, plural(blocked)))
	}

	byProject := map[string]int{}
	for _, t := range tasks {
		if t.Project != "" {
			byProject[t.Project]++
		}
	}
	if top, n := largestBucket(byProject); n > 1 {
		insights = append(insights, fmt.Sprintf("most tasks belong to %s (%d)", top, n))
	}

	return insights
}

func (f *Formatter) formatProjects(payload *models.ResponsePayload, result *queryplan.Result) {
	var sb strings.Builder
	if len(result.Projects) == 1 {
		p := result.Projects[0]
		sb.WriteString(fmt.Sprintf("Project %s is %s.", p.Name, p.Status))
		if p.Owner != "" {
			sb.WriteString(fmt.Sprintf(" Owned by %s.", p.Owner))
		}
		if p.Description != "" {
			sb.WriteString(" " + p.Description)
		}
	} else {
		sb.WriteString(fmt.Sprintf("Found %d projects:\n", len(result.Projects)))
		for _, p := range result.Projects {
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", p.Name, p.Status))
		}
	}

	items := make([]map[string]interface{}, 0, len(result.Projects))
	for _, p := range result.Projects {
		items = append(items, map[string]interface{}{
			"id":     p.ID,
			"name":   p.Name,
			"status": p.Status,
			"owner":  p.Owner,
		})
	}

	payload.Response = strings.TrimRight(sb.String(), "\n")
	payload.StructuredData = map[string]interface{}{
		"count":    len(result.Projects),
		"projects": items,
	}
}

func (f *Formatter) formatEmployees(payload *models.ResponsePayload, result *queryplan.Result) {
	lines := make([]string, 0, len(result.Employees))
	items := make([]map[string]interface{}, 0, len(result.Employees))
	for _, e := range result.Employees {
		line := "- " + e.Name
		if e.Role != "" {
			line += " (" + e.Role + ")"
		}
		lines = append(lines, line)
		items = append(items, map[string]interface{}{"id": e.ID, "name": e.Name, "role": e.Role})
	}

	payload.Response = fmt.Sprintf("Found %d people:\n%s", len(result.Employees), strings.Join(lines, "\n"))
	payload.StructuredData = map[string]interface{}{
		"count":     len(result.Employees),
		"employees": items,
	}
}

func (f *Formatter) taskHeadline(intent models.Intent, count int, effective models.EffectiveEntities) string {
	subject := "tasks"
	if effective.EmployeeName != "" {
		subject = fmt.Sprintf("tasks for %s", effective.EmployeeName)
	}

	switch intent {
	case models.IntentFindOverdue:
		return fmt.Sprintf("%d overdue %s:", count, subject)
	case models.IntentFindCompleted:
		return fmt.Sprintf("%d completed %s:", count, subject)
	case models.IntentFindInProgress:
		return fmt.Sprintf("%d in-progress %s:", count, subject)
	default:
		return fmt.Sprintf("%d %s:", count, subject)
	}
}

func (f *Formatter) zeroRowMessage(intent models.Intent, effective models.EffectiveEntities) string {
	switch intent {
	case models.IntentFindOverdue:
		if effective.EmployeeName != "" {
			return fmt.Sprintf("Good news — %s has no overdue tasks.", effective.EmployeeName)
		}
		return "Good news — nothing is overdue right now."
	case models.IntentProjectStatus:
		if effective.ProjectRef != "" {
			return fmt.Sprintf("I couldn't find a project matching %q.", effective.ProjectRef)
		}
		return "No projects found."
	default:
		if effective.EmployeeName != "" {
			return fmt.Sprintf("No matching tasks found for %s.", effective.EmployeeName)
		}
		return "No matching tasks found."
	}
}

func statusBreakdown(tasks []models.Task) map[string]int {
	out := map[string]int{}
	for _, t := range tasks {
		out[string(t.Status)]++
	}
	return out
}

func priorityBreakdown(tasks []models.Task) map[string]int {
	out := map[string]int{}
	for _, t := range tasks {
		out[string(t.Priority)]++
	}
	return out
}

// largestBucket returns the key with the highest count; ties break
// alphabetically so output is stable.
func largestBucket(buckets map[string]int) (string, int) {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestN := "", 0
	for _, k := range keys {
		if buckets[k] > bestN {
			best, bestN = k, buckets[k]
		}
	}
	return best, bestN
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
