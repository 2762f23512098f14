// internal/assistant/semantic/semantic_test.go
package semantic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-assistant/internal/common/logger"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestIndexSearchRanksBySimilarity(t *testing.T) {
	idx := NewIndex()
	idx.Replace([]Document{
		{EntityID: "t-1", Kind: "task", Title: "Fix login bug", Vector: []float32{1, 0, 0}},
		{EntityID: "t-2", Kind: "task", Title: "Refactor billing", Vector: []float32{0.9, 0.1, 0}},
		{EntityID: "p-1", Kind: "project", Title: "Apollo", Vector: []float32{0, 1, 0}},
	})

	hits := idx.Search([]float32{1, 0, 0}, 5, 0.5)

	require.Len(t, hits, 2)
	assert.Equal(t, "t-1", hits[0].EntityID)
	assert.Equal(t, "t-2", hits[1].EntityID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestIndexSearchTopKAndThreshold(t *testing.T) {
	idx := NewIndex()
	idx.Replace([]Document{
		{EntityID: "a", Vector: []float32{1, 0}},
		{EntityID: "b", Vector: []float32{0.99, 0.01}},
		{EntityID: "c", Vector: []float32{0.98, 0.02}},
		{EntityID: "d", Vector: []float32{0, 1}},
	})

	hits := idx.Search([]float32{1, 0}, 2, 0.35)
	assert.Len(t, hits, 2)

	hits = idx.Search([]float32{1, 0}, 10, 0.999)
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, 0.999)
	}
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	assert.Equal(t, float64(0), cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, float64(0), cosineSimilarity(nil, nil))
	assert.Equal(t, float64(0), cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{3, 4}, []float32{3, 4}), 1e-9)
}

func TestRetrieveEmptyIndexFailsClosed(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, NewIndex(), 5, 0.35, logger.NewNoOpLogger())

	_, err := r.Retrieve(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrIndexEmpty)
}

func TestRetrieveEmbedderErrorFailsClosed(t *testing.T) {
	idx := NewIndex()
	idx.Replace([]Document{{EntityID: "t-1", Vector: []float32{1, 0}}})
	r := NewRetriever(&fakeEmbedder{err: ErrEmbeddingTimeout}, idx, 5, 0.35, logger.NewNoOpLogger())

	_, err := r.Retrieve(context.Background(), "xyz123")
	assert.ErrorIs(t, err, ErrEmbeddingTimeout)
}

func TestRetrieveReturnsHits(t *testing.T) {
	idx := NewIndex()
	idx.Replace([]Document{
		{EntityID: "t-1", Kind: "task", Title: "Fix login bug", Vector: []float32{1, 0, 0}},
		{EntityID: "p-1", Kind: "project", Title: "Apollo", Vector: []float32{0, 1, 0}},
	})
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"login problems": {1, 0, 0},
	}}
	r := NewRetriever(emb, idx, 5, 0.35, logger.NewNoOpLogger())

	hits, err := r.Retrieve(context.Background(), "login problems")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Fix login bug", hits[0].Title)
}

func TestHTTPEmbedderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer server.Close()

	emb := NewHTTPEmbedder(server.URL, "nomic-embed-text", 2*time.Second)
	vector, err := emb.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
}

func TestHTTPEmbedderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	emb := NewHTTPEmbedder(server.URL, "nomic-embed-text", 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := emb.Embed(ctx, "hello")
	assert.ErrorIs(t, err, ErrEmbeddingTimeout)
}

func TestHTTPEmbedderBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	emb := NewHTTPEmbedder(server.URL, "nomic-embed-text", 2*time.Second)
	_, err := emb.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestHTTPEmbedderEmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": []}`))
	}))
	defer server.Close()

	emb := NewHTTPEmbedder(server.URL, "nomic-embed-text", 2*time.Second)
	_, err := emb.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestLoaderBuild(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery(`SELECT id, title, COALESCE\(description, ''\) FROM tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description"}).
			AddRow("t-1", "Fix login bug", "oauth redirect loop").
			AddRow("t-2", "Update docs", ""))
	mock.ExpectQuery(`SELECT id, name, COALESCE\(description, ''\) FROM projects`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("p-1", "Apollo", "payments revamp"))

	idx := NewIndex()
	loader := NewLoader(db, &fakeEmbedder{}, idx, logger.NewNoOpLogger())

	require.NoError(t, loader.Build(context.Background()))
	assert.Equal(t, 3, idx.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderBuildFailureKeepsOldDocuments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery(`SELECT id, title`).WillReturnError(assert.AnError)

	idx := NewIndex()
	idx.Replace([]Document{{EntityID: "t-old", Vector: []float32{1}}})
	loader := NewLoader(db, &fakeEmbedder{}, idx, logger.NewNoOpLogger())

	assert.Error(t, loader.Build(context.Background()))
	assert.Equal(t, 1, idx.Len())
}
