// Package intent classifies a user message into the closed intent set.
// Primary path is the external language-model service; every failure there
// (timeout, bad status, malformed body, out-of-set intent) routes to the
// deterministic rule table, which always produces an answer.
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/common/metrics"
	"taskboard-assistant/internal/models"
)

const TaskType = "classify-intent"

var (
	ErrClassificationFailed = errors.New("INTENT_CLASSIFICATION_FAILED")
	ErrLLMTimeout           = errors.New("LLM_API_TIMEOUT")
)

const instruction = "Classify the user's question about a task dashboard into exactly one " +
	"of the given intents. Respond with JSON {\"intent\": ..., \"confidence\": ...}."

type Classifier struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClassifier(config *Config, log logger.Logger) *Classifier {
	return &Classifier{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Classify returns an intent from the closed set with a confidence in [0,1].
// It never returns an error: the rule fallback guarantees a result.
func (c *Classifier) Classify(ctx context.Context, rawText string, entities models.ExtractedEntities) models.Classification {
	result, err := c.callLLM(ctx, rawText)
	if err == nil {
		return *result
	}

	reason := "llm_error"
	if errors.Is(err, ErrLLMTimeout) {
		reason = "llm_timeout"
	}
	metrics.ClassificationFallbacks.WithLabelValues(reason).Inc()
	c.logger.Warn("language-model classification failed, using rule table", map[string]interface{}{
		"reason": reason,
		"error":  err.Error(),
	})

	return ClassifyByRules(rawText, entities)
}

func (c *Classifier) callLLM(ctx context.Context, rawText string) (*models.Classification, error) {
	intents := make([]string, 0, len(models.AllIntents))
	for _, i := range models.AllIntents {
		intents = append(intents, string(i))
	}

	requestBody := map[string]interface{}{
		"instruction": instruction,
		"query":       rawText,
		"intents":     intents,
	}

	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrLLMTimeout
			}
		}

		// Fresh request per attempt: the body is consumed on each send.
		req, err := http.NewRequestWithContext(ctx, "POST", c.config.GenAIBaseURL+"/api/ai/classify-intent", bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)

		// If the context expired during the request, report timeout immediately.
		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrLLMTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrLLMTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrClassificationFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrClassificationFailed, err)
	}

	// The model's output is untrusted: reject anything outside the closed set.
	candidate := models.Intent(apiResponse.Intent)
	if !candidate.IsValid() {
		return nil, fmt.Errorf("%w: intent %q outside closed set", ErrClassificationFailed, apiResponse.Intent)
	}

	confidence := clip(apiResponse.Confidence)

	c.logger.Info("intent classified", map[string]interface{}{
		"intent":     string(candidate),
		"confidence": confidence,
		"path":       string(models.PathLLM),
	})

	return &models.Classification{
		Intent:     candidate,
		Confidence: confidence,
		Path:       models.PathLLM,
	}, nil
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
