// internal/models/intent.go
package models

// Intent is the closed set of things a user can ask the assistant for.
type Intent string

const (
	IntentListTasksForPerson Intent = "list_tasks_for_person"
	IntentSummarizeWorkload  Intent = "summarize_workload"
	IntentFindOverdue        Intent = "find_overdue"
	IntentFindCompleted      Intent = "find_completed"
	IntentFindInProgress     Intent = "find_in_progress"
	IntentProjectStatus      Intent = "project_status"
	IntentGeneralSearch      Intent = "general_search"
	IntentUnknown            Intent = "unknown"
)

// AllIntents lists every member of the closed set, in a fixed order.
var AllIntents = []Intent{
	IntentListTasksForPerson,
	IntentSummarizeWorkload,
	IntentFindOverdue,
	IntentFindCompleted,
	IntentFindInProgress,
	IntentProjectStatus,
	IntentGeneralSearch,
	IntentUnknown,
}

// IsValid reports whether the intent belongs to the closed set.
func (i Intent) IsValid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

// ClassificationPath identifies which mechanism produced a classification.
type ClassificationPath string

const (
	PathLLM   ClassificationPath = "llm"
	PathRules ClassificationPath = "rules"
)

// Classification is an intent plus how sure we are and where it came from.
type Classification struct {
	Intent     Intent             `json:"intent"`
	Confidence float64            `json:"confidence"`
	Path       ClassificationPath `json:"path"`
}
