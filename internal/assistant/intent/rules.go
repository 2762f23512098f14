// internal/assistant/intent/rules.go
package intent

import (
	"strings"

	"taskboard-assistant/internal/models"
)

// rule maps keyword presence to an intent. Rules are evaluated in order;
// the first match wins, so more specific phrasings come first.
type rule struct {
	keywords   []string
	intent     models.Intent
	confidence float64
}

var ruleTable = []rule{
	{[]string{"overdue", "past due", "behind schedule"}, models.IntentFindOverdue, 0.85},
	{[]string{"summarize", "summary", "workload", "how busy", "how loaded"}, models.IntentSummarizeWorkload, 0.8},
	{[]string{"completed", "done", "finished", "closed"}, models.IntentFindCompleted, 0.8},
	{[]string{"in progress", "in-progress", "working on", "ongoing", "active"}, models.IntentFindInProgress, 0.8},
	{[]string{"project status", "how is project", "status of project", "project health"}, models.IntentProjectStatus, 0.8},
}

// ClassifyByRules is the deterministic fallback. It always returns an intent
// from the closed set; unknown only when no rule matches and extraction found
// nothing either.
func ClassifyByRules(rawText string, entities models.ExtractedEntities) models.Classification {
	lower := strings.ToLower(rawText)

	for _, r := range ruleTable {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return models.Classification{
					Intent:     r.intent,
					Confidence: r.confidence,
					Path:       models.PathRules,
				}
			}
		}
	}

	// Project reference without a matching phrase still reads as a status ask.
	if entities.ProjectRef != "" {
		return models.Classification{
			Intent:     models.IntentProjectStatus,
			Confidence: 0.6,
			Path:       models.PathRules,
		}
	}

	// A recognized person with no other signal reads as "list their tasks".
	if entities.EmployeeName != "" {
		return models.Classification{
			Intent:     models.IntentListTasksForPerson,
			Confidence: 0.7,
			Path:       models.PathRules,
		}
	}

	if !entities.IsEmpty() {
		return models.Classification{
			Intent:     models.IntentGeneralSearch,
			Confidence: 0.5,
			Path:       models.PathRules,
		}
	}

	return models.Classification{
		Intent:     models.IntentUnknown,
		Confidence: 0.0,
		Path:       models.PathRules,
	}
}
