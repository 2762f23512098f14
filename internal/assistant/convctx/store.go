// Package convctx is the per-session short-term memory: the last referenced
// employee, intent, and result IDs. Backed by redis with a TTL per key, so
// idle sessions expire without a sweeper. Sessions are independent; there is
// no cross-session state.
package convctx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/models"
)

const keyPrefix = "assistant:ctx:"

type Store struct {
	client *redis.Client
	ttl    time.Duration
	maxIDs int
	logger logger.Logger
}

func NewStore(client *redis.Client, ttl time.Duration, maxIDs int, log logger.Logger) *Store {
	if maxIDs <= 0 {
		maxIDs = 20
	}
	return &Store{
		client: client,
		ttl:    ttl,
		maxIDs: maxIDs,
		logger: log.WithFields(map[string]interface{}{"component": "convctx"}),
	}
}

// Resolve merges freshly extracted entities with the session's remembered
// state. Only gaps are filled: an explicit employee in the new message always
// wins over the remembered one. Store errors degrade to "no context".
func (s *Store) Resolve(ctx context.Context, sessionID string, entities models.ExtractedEntities) models.EffectiveEntities {
	effective := models.EffectiveEntities{ExtractedEntities: entities}

	prev, err := s.get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("context lookup failed, continuing without context", map[string]interface{}{
				"sessionId": sessionID,
				"error":     err.Error(),
			})
		}
		return effective
	}

	if effective.EmployeeName == "" && prev.LastEmployee != "" {
		effective.EmployeeName = prev.LastEmployee
		effective.FromContext = append(effective.FromContext, "employeeName")
	}

	return effective
}

// Update persists the session state. Called only after the full pipeline
// succeeded, so an abandoned request never corrupts the context.
func (s *Store) Update(ctx context.Context, sessionID, employee string, intent models.Intent, resultIDs []string) error {
	if len(resultIDs) > s.maxIDs {
		resultIDs = resultIDs[:s.maxIDs]
	}

	state := models.ConversationContext{
		LastEmployee:  employee,
		LastIntent:    intent,
		LastResultIDs: resultIDs,
		UpdatedAt:     time.Now().UTC(),
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, keyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		s.logger.Warn("context update failed", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return err
	}
	return nil
}

// Get returns the raw remembered state, redis.Nil error when absent.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.ConversationContext, error) {
	return s.get(ctx, sessionID)
}

func (s *Store) get(ctx context.Context, sessionID string) (*models.ConversationContext, error) {
	val, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return nil, err
	}

	var state models.ConversationContext
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, err
	}
	return &state, nil
}
