// internal/assistant/semantic/index.go
package semantic

import (
	"math"
	"sort"
	"sync"

	"taskboard-assistant/internal/models"
)

// Document is one indexed entity with its embedding.
type Document struct {
	EntityID string
	Kind     string // "task" or "project"
	Title    string
	Vector   []float32
}

// Index is an in-memory vector index over task and project descriptions.
// Rebuilds replace the whole document set; reads take an RLock so queries
// run concurrently with each other.
type Index struct {
	mu   sync.RWMutex
	docs []Document
}

func NewIndex() *Index {
	return &Index{}
}

// Replace swaps in a freshly built document set.
func (idx *Index) Replace(docs []Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = docs
}

// Len reports how many documents are indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search ranks all documents by cosine similarity against the query vector
// and returns up to topK hits at or above threshold, best first.
func (idx *Index) Search(query []float32, topK int, threshold float64) []models.SemanticHit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]models.SemanticHit, 0, topK)
	for _, doc := range idx.docs {
		score := cosineSimilarity(query, doc.Vector)
		if score < threshold {
			continue
		}
		hits = append(hits, models.SemanticHit{
			EntityID: doc.EntityID,
			Kind:     doc.Kind,
			Title:    doc.Title,
			Score:    score,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either has no magnitude or the dimensions disagree.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
