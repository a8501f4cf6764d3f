// Package publisher announces finished corpora to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EventCorpusReady tags notifications sent after a corpus is archived.
const EventCorpusReady = "corpus_ready"

// Publisher sends a payload to a topic and returns the broker's message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// ContentTypeJSON is the content_type attribute of every message.
const ContentTypeJSON = "application/json"

// Event is implemented by payloads that carry an event type attribute.
type Event interface {
	EventType() string
}

// CorpusReady describes an archived corpus.
type CorpusReady struct {
	RunID     string    `json:"run_id"`
	URI       string    `json:"uri"`
	SHA256    string    `json:"sha256"`
	Documents int       `json:"documents"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType implements Event.
func (CorpusReady) EventType() string { return EventCorpusReady }

// Encode renders payload as the JSON body and attributes sent to a broker.
// Payloads implementing Event also get an "event" attribute.
func Encode(payload any) ([]byte, map[string]string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal payload: %w", err)
	}
	attrs := map[string]string{"content_type": ContentTypeJSON}
	if ev, ok := payload.(Event); ok {
		attrs["event"] = ev.EventType()
	}
	return data, attrs, nil
}
