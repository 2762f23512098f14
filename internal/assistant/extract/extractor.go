// Package extract parses free text for employee names, project references,
// status and priority keywords, relative date expressions, and the explicit
// full-list flag. Extraction never fails: absence of a signal is an empty
// field, not an error.
package extract

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"taskboard-assistant/internal/models"
)

// Extractor holds the known-name list and a clock. Same input always yields
// the same output for a fixed clock.
type Extractor struct {
	mu    sync.RWMutex
	names []string // known employee full names
	now   func() time.Time
}

// New creates an Extractor. nowFn may be nil to use time.Now.
func New(knownNames []string, nowFn func() time.Time) *Extractor {
	if nowFn == nil {
		nowFn = time.Now
	}
	e := &Extractor{now: nowFn}
	e.SetKnownNames(knownNames)
	return e
}

// SetKnownNames replaces the known-name list (refreshed from the store).
func (e *Extractor) SetKnownNames(names []string) {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			cleaned = append(cleaned, n)
		}
	}
	e.mu.Lock()
	e.names = cleaned
	e.mu.Unlock()
}

var statusKeywords = []struct {
	words  []string
	status models.TaskStatus
}{
	{[]string{"completed", "complete", "done", "finished", "closed"}, models.StatusCompleted},
	{[]string{"in progress", "in-progress", "ongoing", "working on", "active"}, models.StatusInProgress},
	{[]string{"blocked", "stuck", "waiting"}, models.StatusBlocked},
	{[]string{"todo", "to do", "to-do", "not started", "pending"}, models.StatusTodo},
}

var priorityKeywords = []struct {
	words    []string
	priority models.TaskPriority
}{
	{[]string{"urgent", "critical", "asap"}, models.PriorityUrgent},
	{[]string{"high priority", "high-priority", "important"}, models.PriorityHigh},
	{[]string{"medium priority", "medium-priority"}, models.PriorityMedium},
	{[]string{"low priority", "low-priority", "minor"}, models.PriorityLow},
}

var fullListPhrases = []string{
	"full list", "complete list", "entire list", "all of them", "everything",
	"show all", "list all",
}

var (
	projectQuotedPattern = regexp.MustCompile(`(?i)\bproject\s+["']([^"']+)["']`)
	projectNamePattern   = regexp.MustCompile(`(?i)\bproject\s+([\w][\w-]*(?:\s+[\w][\w-]*)*)`)
)

// projectStopWords end an unquoted project name: "how is project Apollo
// doing" names the project Apollo, not "Apollo doing".
var projectStopWords = map[string]bool{
	"is": true, "are": true, "was": true, "and": true, "or": true,
	"on": true, "at": true, "in": true, "for": true, "with": true,
	"doing": true, "going": true, "looking": true, "coming": true,
	"track": true, "status": true, "update": true, "progress": true,
	"right": true, "now": true, "today": true, "currently": true,
	"tasks": true, "due": true, "overdue": true, "late": true,
	"behind": true, "this": true, "last": true, "next": true,
}

// Extract parses rawText into structured entities.
func (e *Extractor) Extract(rawText string) models.ExtractedEntities {
	lower := strings.ToLower(rawText)
	out := models.ExtractedEntities{}

	out.EmployeeName = e.matchEmployee(lower)
	out.ProjectRef = matchProject(rawText)
	out.StatusFilter = matchStatus(lower)
	out.PriorityFilter = matchPriority(lower)
	out.DateRange = e.resolveDateRange(lower)
	out.IncludeAll = matchFullList(lower)

	return out
}

// matchEmployee checks the known-name list, tolerating first-name-only and
// possessive forms ("Hamza's"). Matching against known names only keeps
// common words from becoming false positives.
func (e *Extractor) matchEmployee(lower string) string {
	e.mu.RLock()
	names := e.names
	e.mu.RUnlock()

	words := tokenize(lower)
	for _, full := range names {
		fullLower := strings.ToLower(full)
		if strings.Contains(lower, fullLower) {
			return full
		}
		first := strings.ToLower(strings.Fields(full)[0])
		for _, w := range words {
			if w == first {
				return full
			}
		}
	}
	return ""
}

func tokenize(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	// "hamza's" tokenizes to ["hamza", "s"]; the stray "s" is harmless.
	return fields
}

// matchProject prefers the quoted form, which is taken verbatim. Unquoted
// names run until punctuation or the first stop-word.
func matchProject(rawText string) string {
	if m := projectQuotedPattern.FindStringSubmatch(rawText); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}

	m := projectNamePattern.FindStringSubmatch(rawText)
	if len(m) != 2 {
		return ""
	}
	var kept []string
	for _, w := range strings.Fields(m[1]) {
		if projectStopWords[strings.ToLower(w)] {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func matchStatus(lower string) models.TaskStatus {
	for _, sk := range statusKeywords {
		for _, w := range sk.words {
			if strings.Contains(lower, w) {
				return sk.status
			}
		}
	}
	return ""
}

func matchPriority(lower string) models.TaskPriority {
	for _, pk := range priorityKeywords {
		for _, w := range pk.words {
			if strings.Contains(lower, w) {
				return pk.priority
			}
		}
	}
	return ""
}

func matchFullList(lower string) bool {
	for _, p := range fullListPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// resolveDateRange turns relative date expressions into explicit bounds
// against the extractor's clock. "Overdue" resolves to (zero, now): anything
// due before the current instant.
func (e *Extractor) resolveDateRange(lower string) *models.DateRange {
	now := e.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(lower, "overdue") || strings.Contains(lower, "past due") || containsWord(lower, "late"):
		return &models.DateRange{End: now}
	case strings.Contains(lower, "today"):
		return &models.DateRange{Start: startOfDay, End: startOfDay.AddDate(0, 0, 1)}
	case strings.Contains(lower, "yesterday"):
		return &models.DateRange{Start: startOfDay.AddDate(0, 0, -1), End: startOfDay}
	case strings.Contains(lower, "this week"):
		weekStart := startOfDay.AddDate(0, 0, -int(mondayOffset(startOfDay.Weekday())))
		return &models.DateRange{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}
	case strings.Contains(lower, "last week"):
		weekStart := startOfDay.AddDate(0, 0, -int(mondayOffset(startOfDay.Weekday()))-7)
		return &models.DateRange{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}
	case strings.Contains(lower, "next week"):
		weekStart := startOfDay.AddDate(0, 0, -int(mondayOffset(startOfDay.Weekday()))+7)
		return &models.DateRange{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}
	case strings.Contains(lower, "this month"):
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &models.DateRange{Start: monthStart, End: monthStart.AddDate(0, 1, 0)}
	}
	return nil
}

func containsWord(lower, word string) bool {
	for _, w := range tokenize(lower) {
		if w == word {
			return true
		}
	}
	return false
}

func mondayOffset(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}
