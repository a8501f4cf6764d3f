// Package memory keeps notifications in memory for tests and dry runs.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/JakeFAU/forum-corpus/internal/publisher"
)

// Message is one accepted notification, encoded the way a broker would
// receive it.
type Message struct {
	Topic      string
	Payload    any
	Data       []byte
	Attributes map[string]string
}

// Publisher records messages instead of sending them.
type Publisher struct {
	mu       sync.Mutex
	messages []Message
	fail     error
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes later calls to Publish return err. Nil restores success.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	p.fail = err
	p.mu.Unlock()
}

// Publish encodes payload and records it under topic. IDs count up from 1.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, attrs, err := publisher.Encode(payload)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return "", p.fail
	}
	p.messages = append(p.messages, Message{Topic: topic, Payload: payload, Data: data, Attributes: attrs})
	return strconv.Itoa(len(p.messages)), nil
}

// Messages returns the recorded messages in publish order.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}
