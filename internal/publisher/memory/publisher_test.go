package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/forum-corpus/internal/publisher"
	"github.com/JakeFAU/forum-corpus/internal/publisher/memory"
)

var _ publisher.Publisher = (*memory.Publisher)(nil)

func TestPublishRecordsEncodedMessages(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	ready := publisher.CorpusReady{
		RunID:     "run-1",
		URI:       "memory://corpus/run-1/preprocessed.csv",
		Documents: 7,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	id, err := pub.Publish(context.Background(), "corpus-ready", ready)
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	id, err = pub.Publish(context.Background(), "audit", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, "2", id)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ready, msgs[0].Payload)
	assert.Equal(t, map[string]string{
		"content_type": publisher.ContentTypeJSON,
		"event":        publisher.EventCorpusReady,
	}, msgs[0].Attributes)
	assert.NotContains(t, msgs[1].Attributes, "event")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, float64(7), decoded["documents"])
	assert.Equal(t, "2024-01-02T03:04:05Z", decoded["created_at"])

	msgs[0].Topic = "changed"
	assert.Equal(t, "corpus-ready", pub.Messages()[0].Topic)
}

func TestPublishFailures(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	boom := errors.New("broker down")
	pub.FailWith(boom)
	_, err := pub.Publish(context.Background(), "t", "x")
	assert.ErrorIs(t, err, boom)

	pub.FailWith(nil)
	_, err = pub.Publish(context.Background(), "t", make(chan int))
	assert.ErrorContains(t, err, "marshal payload")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pub.Publish(ctx, "t", "x")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, pub.Messages())
}
