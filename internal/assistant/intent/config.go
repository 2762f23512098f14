// internal/assistant/intent/config.go
package intent

import "time"

type Config struct {
	GenAIBaseURL string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
}
