// internal/models/response.go
package models

// AnswerSource tags which path produced the answer, surfaced to callers as
// contextual info.
type AnswerSource string

const (
	SourceStructuredQuery  AnswerSource = "structured_query"
	SourceSemanticFallback AnswerSource = "semantic_fallback"
	SourceNone             AnswerSource = "none"
)

// ResponsePayload is the assistant's answer to one request.
type ResponsePayload struct {
	Success          bool                   `json:"success"`
	Response         string                 `json:"response"`
	StructuredData   map[string]interface{} `json:"structured_data"`
	IntentType       string                 `json:"intent_type"`
	Confidence       float64                `json:"confidence"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
	Source           AnswerSource           `json:"source"`
}
