package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	QueueSize  int           // buffered messages of the local queue
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
	JobTimeout time.Duration // per-message handler deadline, 0 means none
}

func (c *QueueConfig) withDefaults() *QueueConfig {
	out := QueueConfig{}
	if c != nil {
		out = *c
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 256
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = 10 * time.Second
	}
	return &out
}

// Message represents a message in the queue. Payload holds the JSON encoding
// of the published value and reaches jobs as json.RawMessage.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

func newMessage(id, msgType string, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Message{ID: id, Type: msgType, Payload: raw, Timestamp: time.Now().UTC()}, nil
}

func ParsePayload[T any](payload interface{}) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		return &result, nil
	case []byte:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		return &result, nil
	case map[string]interface{}, []interface{}:
		jsonData, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json to %T: %w", result, err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}
}

// Runner is a queue the application starts and stops.
type Runner interface {
	QueueService
	Start() error
	Stop(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}
