// internal/assistant/orchestrator/orchestrator.go

// Package orchestrator sequences the query pipeline: extraction,
// classification, context resolution, plan building and execution,
// formatting, and the audit write. Every request produces exactly one
// audit record and one user-safe payload, whatever failed along the way.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	stderrors "taskboard-assistant/internal/common/errors"
	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/common/metrics"

	"taskboard-assistant/internal/assistant/queryplan"
	"taskboard-assistant/internal/assistant/respond"
	"taskboard-assistant/internal/models"
)

type entityExtractor interface {
	Extract(rawText string) models.ExtractedEntities
}

type intentClassifier interface {
	Classify(ctx context.Context, rawText string, entities models.ExtractedEntities) models.Classification
}

type contextStore interface {
	Resolve(ctx context.Context, sessionID string, entities models.ExtractedEntities) models.EffectiveEntities
	Update(ctx context.Context, sessionID, employee string, intent models.Intent, resultIDs []string) error
}

type planBuilder interface {
	Build(intent models.Intent, effective models.EffectiveEntities) (*models.QueryPlan, error)
}

type planExecutor interface {
	Execute(ctx context.Context, plan *models.QueryPlan) (*queryplan.Result, error)
}

type semanticRetriever interface {
	Retrieve(ctx context.Context, prompt string) ([]models.SemanticHit, error)
}

// Orchestrator owns one request end to end.
type Orchestrator struct {
	extractor  entityExtractor
	classifier intentClassifier
	ctxStore   contextStore
	builder    planBuilder
	executor   planExecutor
	retriever  semanticRetriever
	formatter  *respond.Formatter
	audit      AuditSink
	logger     logger.Logger
}

func New(
	extractor entityExtractor,
	classifier intentClassifier,
	ctxStore contextStore,
	builder planBuilder,
	executor planExecutor,
	retriever semanticRetriever,
	formatter *respond.Formatter,
	audit AuditSink,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractor:  extractor,
		classifier: classifier,
		ctxStore:   ctxStore,
		builder:    builder,
		executor:   executor,
		retriever:  retriever,
		formatter:  formatter,
		audit:      audit,
		logger:     log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Answer processes one prompt for one session.
func (o *Orchestrator) Answer(ctx context.Context, rawText, sessionID string) *models.ResponsePayload {
	start := time.Now()

	entities := o.extractor.Extract(rawText)
	classification := o.classifier.Classify(ctx, rawText, entities)
	effective := o.ctxStore.Resolve(ctx, sessionID, entities)

	record := &models.AuditRecord{
		SessionID:  sessionID,
		Prompt:     rawText,
		Entities:   entities,
		Intent:     classification.Intent,
		Confidence: classification.Confidence,
		Path:       classification.Path,
	}

	var payload *models.ResponsePayload

	if classification.Intent == models.IntentUnknown {
		payload = o.answerSemantic(ctx, rawText, sessionID, classification, effective, record)
	} else {
		payload = o.answerStructured(ctx, rawText, sessionID, classification, effective, record)
	}

	payload.IntentType = string(classification.Intent)
	payload.Confidence = classification.Confidence
	payload.ProcessingTimeMs = time.Since(start).Milliseconds()
	record.DurationMillis = payload.ProcessingTimeMs

	metrics.QueriesProcessed.WithLabelValues(string(classification.Intent), string(record.Outcome)).Inc()
	metrics.QueryDuration.WithLabelValues(string(classification.Intent)).Observe(time.Since(start).Seconds())

	o.writeAudit(ctx, record)

	o.logger.Info("query answered", map[string]interface{}{
		"sessionId": sessionID,
		"intent":    string(classification.Intent),
		"path":      string(classification.Path),
		"outcome":   string(record.Outcome),
		"rowCount":  record.RowCount,
		"tookMs":    record.DurationMillis,
	})

	return payload
}

func (o *Orchestrator) answerStructured(ctx context.Context, rawText, sessionID string, classification models.Classification, effective models.EffectiveEntities, record *models.AuditRecord) *models.ResponsePayload {
	plan, err := o.builder.Build(classification.Intent, effective)
	if err != nil {
		if errors.Is(err, queryplan.ErrUnsupportedIntent) || errors.Is(err, queryplan.ErrInvalidFilter) {
			record.ErrorCode = err.Error()
			return o.answerSemantic(ctx, rawText, sessionID, classification, effective, record)
		}
		return o.answerError(record, stderrors.NewInvalidFilterError("plan", err.Error()))
	}

	if planJSON, jsonErr := json.Marshal(plan); jsonErr == nil {
		record.Plan = string(planJSON)
	}

	result, err := o.executor.Execute(ctx, plan)
	if err != nil {
		o.logger.Error("plan execution failed", map[string]interface{}{
			"sessionId": sessionID,
			"intent":    string(classification.Intent),
			"error":     err.Error(),
		})
		return o.answerError(record, stderrors.NewQueryExecutionFailedError(err))
	}

	payload := o.formatter.Format(classification.Intent, result, effective)
	record.RowCount = result.RowCount
	record.Outcome = models.OutcomeSuccess
	if classification.Path == models.PathRules {
		// The rule table only runs after the LLM failed.
		record.Outcome = models.OutcomePartial
	}

	o.updateContext(ctx, sessionID, effective.EmployeeName, classification.Intent, result.IDs())
	return payload
}

// answerSemantic is the fallback when no structured plan fits. It fails
// closed: retrieval errors produce a polite zero-result answer, never a
// fabricated one.
func (o *Orchestrator) answerSemantic(ctx context.Context, rawText, sessionID string, classification models.Classification, effective models.EffectiveEntities, record *models.AuditRecord) *models.ResponsePayload {
	record.SemanticUsed = true

	hits, err := o.retriever.Retrieve(ctx, rawText)
	if err != nil {
		o.logger.Warn("semantic retrieval unavailable", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		record.Outcome = models.OutcomePartial
		if record.ErrorCode == "" {
			record.ErrorCode = err.Error()
		}
		return o.formatter.FormatHits(rawText, nil)
	}

	payload := o.formatter.FormatHits(rawText, hits)
	record.RowCount = len(hits)
	record.Outcome = models.OutcomePartial
	if len(hits) > 0 {
		ids := make([]string, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.EntityID)
		}
		// Keep whichever employee the session already resolved; the context
		// write replaces the whole record, so an empty name would erase it.
		o.updateContext(ctx, sessionID, effective.EmployeeName, classification.Intent, ids)
	}
	return payload
}

func (o *Orchestrator) answerError(record *models.AuditRecord, err *stderrors.StandardError) *models.ResponsePayload {
	record.Outcome = models.OutcomeError
	record.ErrorCode = string(err.Code)

	return &models.ResponsePayload{
		Success:  false,
		Response: stderrors.UserMessage(err),
		Source:   models.SourceNone,
	}
}

// updateContext runs only after a successful answer. A context-store failure
// degrades the next turn's pronoun resolution, nothing more.
func (o *Orchestrator) updateContext(ctx context.Context, sessionID, employee string, intent models.Intent, resultIDs []string) {
	if sessionID == "" {
		return
	}
	if err := o.ctxStore.Update(ctx, sessionID, employee, intent, resultIDs); err != nil {
		o.logger.Warn("context update failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	}
}
