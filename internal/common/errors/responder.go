// internal/common/errors/responder.go
package errors

// UserMessage maps an internal error to the text shown to the end user.
// Underlying causes stay in logs and the audit record; they are never exposed.
func UserMessage(err error) string {
	switch CodeOf(err) {
	case ErrCodeUnsupportedIntent, ErrCodeInvalidFilter, ErrCodeSemanticIndexEmpty:
		return "I couldn't find anything matching that. Try rephrasing, or ask about a person, project, or task status."
	case ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout:
		return "Sorry, something went wrong while looking that up. Please try again in a moment."
	case ErrCodeInvalidRequest:
		return "I couldn't understand that request."
	default:
		return "Sorry, something went wrong. Please try again."
	}
}

// IsRecoverable reports whether the pipeline handles this error via a
// fallback path instead of failing the request.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeIntentClassificationFailed, ErrCodeLLMAPITimeout,
		ErrCodeEmbeddingFailed, ErrCodeEmbeddingTimeout,
		ErrCodeUnsupportedIntent, ErrCodeInvalidFilter:
		return true
	}
	return false
}
