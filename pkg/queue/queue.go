package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Queue accepts typed messages and dispatches them to registered jobs
// on background workers.
type Queue interface {
	Publish(ctx context.Context, msgType string, payload interface{}) error
	RegisterJob(job Job)
	Start() error
	Stop(ctx context.Context) error
}

// Job handles one message type.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type the job consumes.
	Type() string

	// Handle processes one payload. A returned error triggers a retry
	// until the queue's retry limit is reached.
	Handle(ctx context.Context, payload interface{}) error
}

// Config tunes queue workers and retry behavior.
type Config struct {
	Workers    int
	QueueSize  int
	RetryLimit int
	RetryDelay time.Duration
}

func (c *Config) fill() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Second
	}
}

// Message is the envelope carried through a queue backend.
type Message struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Attempts  int         `json:"attempts"`
	Timestamp time.Time   `json:"timestamp"`
}

// ParsePayload converts a message payload into T. Payloads arrive as
// concrete values in-process and as decoded JSON from Redis, so both
// shapes are handled.
func ParsePayload[T any](payload interface{}) (*T, error) {
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		var result T
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case map[string]interface{}:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload map: %w", err)
		}
		var result T
		if err := json.Unmarshal(b, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload map: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("unsupported payload type: %T", payload)
	}
}
