// internal/assistant/orchestrator/audit.go
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/common/metrics"
	"taskboard-assistant/internal/models"
)

// AuditSink records one AuditRecord per request. Implementations must not
// fail the request: audit problems are reported via the error return and
// handled by the orchestrator as log-and-continue.
type AuditSink interface {
	Write(ctx context.Context, record *models.AuditRecord) error
}

// ElasticsearchAudit appends audit records to a dedicated index.
type ElasticsearchAudit struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchAudit(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchAudit {
	if index == "" {
		index = "assistant-audit"
	}
	return &ElasticsearchAudit{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// Write indexes the record. The document id comes from the record so a
// retried write stays idempotent.
func (a *ElasticsearchAudit) Write(ctx context.Context, record *models.AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling audit record: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      a.index,
		DocumentID: record.ID,
		Body:       strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, a.client)
	if err != nil {
		return fmt.Errorf("indexing audit record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("audit index write failed: %s", res.Status())
	}
	return nil
}

// writeAudit is the orchestrator-side wrapper: failures are logged and
// counted, never propagated.
func (o *Orchestrator) writeAudit(ctx context.Context, record *models.AuditRecord) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Write(ctx, record); err != nil {
		metrics.AuditWriteFailures.Inc()
		o.logger.Error("audit write failed", map[string]interface{}{
			"sessionId": record.SessionID,
			"error":     err.Error(),
		})
	}
}
