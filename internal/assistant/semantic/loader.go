// internal/assistant/semantic/loader.go
package semantic

import (
	"context"
	"database/sql"
	"fmt"

	"taskboard-assistant/internal/common/logger"
)

// Loader builds the index from task and project rows. It runs at startup
// and can be re-run to pick up new rows; a failed build leaves the previous
// document set in place.
type Loader struct {
	db       *sql.DB
	embedder Embedder
	index    *Index
	logger   logger.Logger
}

func NewLoader(db *sql.DB, embedder Embedder, index *Index, log logger.Logger) *Loader {
	return &Loader{
		db:       db,
		embedder: embedder,
		index:    index,
		logger:   log.WithFields(map[string]interface{}{"component": "semantic-loader"}),
	}
}

// Build reads every task and project, embeds title plus description, and
// swaps the complete set into the index.
func (l *Loader) Build(ctx context.Context) error {
	var docs []Document

	taskDocs, err := l.loadDocs(ctx,
		"SELECT id, title, COALESCE(description, '') FROM tasks", "task")
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	docs = append(docs, taskDocs...)

	projectDocs, err := l.loadDocs(ctx,
		"SELECT id, name, COALESCE(description, '') FROM projects", "project")
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	docs = append(docs, projectDocs...)

	l.index.Replace(docs)
	l.logger.Info("semantic index built", map[string]interface{}{
		"documents": len(docs),
		"tasks":     len(taskDocs),
		"projects":  len(projectDocs),
	})
	return nil
}

func (l *Loader) loadDocs(ctx context.Context, query, kind string) ([]Document, error) {
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, title, description string
		if err := rows.Scan(&id, &title, &description); err != nil {
			return nil, err
		}

		text := title
		if description != "" {
			text += ". " + description
		}

		vector, err := l.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding %s %s: %w", kind, id, err)
		}

		docs = append(docs, Document{
			EntityID: id,
			Kind:     kind,
			Title:    title,
			Vector:   vector,
		})
	}
	return docs, rows.Err()
}
