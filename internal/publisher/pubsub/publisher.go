// Package pubsub implements a Google Cloud Pub/Sub publisher.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"

	"github.com/JakeFAU/forum-corpus/internal/publisher"
)

// Publisher publishes JSON payloads, keeping one topic publisher per topic.
type Publisher struct {
	client *pubsub.Client
	owned  bool

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client *pubsub.Client) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}
	return &Publisher{client: client, publishers: make(map[string]*pubsub.Publisher)}, nil
}

// Open creates a client for projectID and checks that topicID exists.
func Open(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
		Topic: fmt.Sprintf("projects/%s/topics/%s", projectID, topicID),
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get pubsub topic %q: %w", topicID, err)
	}
	if topic.GetState() == pubsubpb.Topic_INGESTION_RESOURCE_ERROR {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q is not accepting messages", topicID)
	}
	p, err := New(client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// Publish marshals the payload to JSON and waits for the server to accept it.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) (string, error) {
	if topic == "" {
		return "", fmt.Errorf("topic is required")
	}
	data, attrs, err := publisher.Encode(payload)
	if err != nil {
		return "", err
	}
	id, err := p.topic(topic).Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

func (p *Publisher) topic(name string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	pub, ok := p.publishers[name]
	if !ok {
		pub = p.client.Publisher(name)
		p.publishers[name] = pub
	}
	return pub
}

// Close flushes every topic publisher and closes the client if Open made it.
func (p *Publisher) Close() error {
	p.mu.Lock()
	for name, pub := range p.publishers {
		pub.Stop()
		delete(p.publishers, name)
	}
	p.mu.Unlock()
	if p.owned {
		return p.client.Close()
	}
	return nil
}
