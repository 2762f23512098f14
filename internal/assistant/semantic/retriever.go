// internal/assistant/semantic/retriever.go
package semantic

import (
	"context"
	"errors"

	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/common/metrics"
	"taskboard-assistant/internal/models"
)

// ErrIndexEmpty means the index has no documents, usually because the
// startup build failed and no rebuild has succeeded since.
var ErrIndexEmpty = errors.New("SEMANTIC_INDEX_EMPTY")

// Retriever is the fallback path when no structured plan fits: embed the
// prompt and rank indexed tasks and projects by similarity. It fails closed:
// any error surfaces to the caller, which reports zero results rather than
// guessing.
type Retriever struct {
	embedder  Embedder
	index     *Index
	topK      int
	threshold float64
	logger    logger.Logger
}

func NewRetriever(embedder Embedder, index *Index, topK int, threshold float64, log logger.Logger) *Retriever {
	return &Retriever{
		embedder:  embedder,
		index:     index,
		topK:      topK,
		threshold: threshold,
		logger:    log.WithFields(map[string]interface{}{"component": "semantic-retriever"}),
	}
}

// Retrieve embeds the prompt and searches the index.
func (r *Retriever) Retrieve(ctx context.Context, prompt string) ([]models.SemanticHit, error) {
	if r.index.Len() == 0 {
		return nil, ErrIndexEmpty
	}

	vector, err := r.embedder.Embed(ctx, prompt)
	if err != nil {
		r.logger.Warn("embedding failed, semantic fallback unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	hits := r.index.Search(vector, r.topK, r.threshold)
	metrics.SemanticFallbacks.Inc()

	r.logger.Debug("semantic retrieval done", map[string]interface{}{
		"hits":      len(hits),
		"topK":      r.topK,
		"threshold": r.threshold,
	})
	return hits, nil
}
