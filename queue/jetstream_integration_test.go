//go:build integration

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJetStream(t *testing.T, ackWait time.Duration) *JetStream {
	t.Helper()
	tc := natsclient.NewTestClient(t, natsclient.WithJetStream())
	ctx := context.Background()

	js, err := tc.Client.JetStream()
	require.NoError(t, err)

	q, err := NewJetStream(ctx, js, JetStreamConfig{
		Stream:        "SEMCRAWL_TEST",
		SubjectPrefix: "semcrawltest",
		AckWait:       ackWait,
		MaxDeliver:    3,
	}, nil)
	require.NoError(t, err)
	return q
}

func TestJetStream_SendReceiveDelete(t *testing.T) {
	q := newTestJetStream(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, Reindex, []byte("https://pid.example.org/1")))
	require.NoError(t, q.Send(ctx, Reindex, []byte("https://pid.example.org/2")))

	n, err := q.Count(ctx, Reindex)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	msgs, err := q.Receive(ctx, Reindex, 10, time.Second)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "https://pid.example.org/1", string(msgs[0].Body))

	for _, m := range msgs {
		require.NoError(t, q.Delete(ctx, Reindex, m.ReceiptHandle))
	}

	require.Eventually(t, func() bool {
		n, err := q.Count(ctx, Reindex)
		return err == nil && n == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestJetStream_Redelivery(t *testing.T) {
	q := newTestJetStream(t, time.Second)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, Index, []byte("payload")))

	msgs, err := q.Receive(ctx, Index, 1, time.Second)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msgs, err = q.Receive(ctx, Index, 1, 3*time.Second)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "message is redelivered after ack wait")
	assert.Equal(t, "payload", string(msgs[0].Body))
	require.NoError(t, q.Delete(ctx, Index, msgs[0].ReceiptHandle))
}
