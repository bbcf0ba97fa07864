package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "topic-a", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id1)
	id2, err := pub.Publish(context.Background(), "topic-b", "payload")
	require.NoError(t, err)
	assert.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "topic-a", msgs[0].Topic)
	assert.Equal(t, "memory-2", msgs[1].ID)
	assert.Equal(t, []any{"payload"}, pub.ByTopic("topic-b"))

	msgs[0].Topic = "modified"
	assert.Equal(t, "topic-a", pub.Messages()[0].Topic, "Messages() must return a copy")
}

func TestPublisherClose(t *testing.T) {
	t.Parallel()

	pub := New()
	require.NoError(t, pub.Close())
	_, err := pub.Publish(context.Background(), "topic", "x")
	require.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, pub.Messages())
}
