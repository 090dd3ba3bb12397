package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamConfig configures a JetStream queue.
type JetStreamConfig struct {
	// Stream is the work-queue stream holding every queue.
	Stream string
	// SubjectPrefix is prepended to queue names to form subjects.
	SubjectPrefix string
	// AckWait is the visibility timeout of received messages.
	AckWait time.Duration
	// MaxDeliver bounds redeliveries of messages that are never deleted.
	MaxDeliver int
}

// DefaultJetStreamConfig returns the default settings.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		Stream:        "SEMCRAWL",
		SubjectPrefix: "semcrawl",
		AckWait:       DefaultVisibilityTimeout,
		MaxDeliver:    5,
	}
}

type jsInflight struct {
	msg      jetstream.Msg
	received time.Time
}

// JetStream is a Queue on a NATS work-queue stream with one durable pull
// consumer per queue. Deleting a message acknowledges it.
type JetStream struct {
	js     jetstream.JetStream
	stream jetstream.Stream
	config JetStreamConfig
	logger *slog.Logger

	mu        sync.Mutex
	consumers map[string]jetstream.Consumer
	inflight  map[string]jsInflight
}

// NewJetStream creates or updates the stream and returns the queue.
func NewJetStream(ctx context.Context, js jetstream.JetStream, config JetStreamConfig, logger *slog.Logger) (*JetStream, error) {
	defaults := DefaultJetStreamConfig()
	if config.Stream == "" {
		config.Stream = defaults.Stream
	}
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = defaults.SubjectPrefix
	}
	if config.AckWait <= 0 {
		config.AckWait = defaults.AckWait
	}
	if config.MaxDeliver <= 0 {
		config.MaxDeliver = defaults.MaxDeliver
	}
	if logger == nil {
		logger = slog.Default()
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        config.Stream,
		Description: "Semcrawl work queues",
		Subjects:    []string{config.SubjectPrefix + ".>"},
		Retention:   jetstream.WorkQueuePolicy,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", config.Stream, err)
	}

	return &JetStream{
		js:        js,
		stream:    stream,
		config:    config,
		logger:    logger,
		consumers: make(map[string]jetstream.Consumer),
		inflight:  make(map[string]jsInflight),
	}, nil
}

func (q *JetStream) subject(queue string) string {
	return q.config.SubjectPrefix + "." + queue
}

func (q *JetStream) consumer(ctx context.Context, queue string) (jetstream.Consumer, error) {
	q.mu.Lock()
	c, ok := q.consumers[queue]
	q.mu.Unlock()
	if ok {
		return c, nil
	}

	name := strings.NewReplacer(".", "_", "*", "_", ">", "_").Replace(q.config.Stream + "_" + queue)
	c, err := q.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       name,
		FilterSubject: q.subject(queue),
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       q.config.AckWait,
		MaxDeliver:    q.config.MaxDeliver,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer for %s: %w", queue, err)
	}

	q.mu.Lock()
	q.consumers[queue] = c
	q.mu.Unlock()
	return c, nil
}

func (q *JetStream) Send(ctx context.Context, queue string, payload []byte) error {
	if _, err := q.js.Publish(ctx, q.subject(queue), payload); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (q *JetStream) Receive(ctx context.Context, queue string, max int, wait time.Duration) ([]Message, error) {
	c, err := q.consumer(ctx, queue)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 1
	}

	var batch jetstream.MessageBatch
	if wait <= 0 {
		batch, err = c.FetchNoWait(max)
	} else {
		batch, err = c.Fetch(max, jetstream.FetchMaxWait(wait))
	}
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", queue, err)
	}

	now := time.Now()
	var out []Message
	q.mu.Lock()
	q.pruneLocked(now)
	for msg := range batch.Messages() {
		handle := uuid.NewString()
		q.inflight[handle] = jsInflight{msg: msg, received: now}
		out = append(out, Message{ReceiptHandle: handle, Body: msg.Data()})
	}
	q.mu.Unlock()

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		q.logger.Debug("Fetch ended with error", "queue", queue, "error", err)
	}
	return out, nil
}

// pruneLocked drops handles whose messages have been redelivered already.
func (q *JetStream) pruneLocked(now time.Time) {
	for handle, in := range q.inflight {
		if now.Sub(in.received) > q.config.AckWait {
			delete(q.inflight, handle)
		}
	}
}

func (q *JetStream) Delete(_ context.Context, queue, receiptHandle string) error {
	q.mu.Lock()
	in, ok := q.inflight[receiptHandle]
	delete(q.inflight, receiptHandle)
	q.mu.Unlock()
	if !ok {
		return ErrUnknownReceipt
	}
	if err := in.msg.Ack(); err != nil {
		return fmt.Errorf("ack message on %s: %w", queue, err)
	}
	return nil
}

func (q *JetStream) Count(ctx context.Context, queue string) (int, error) {
	c, err := q.consumer(ctx, queue)
	if err != nil {
		return 0, err
	}
	info, err := c.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("consumer info for %s: %w", queue, err)
	}
	return int(info.NumPending) + info.NumAckPending, nil
}
