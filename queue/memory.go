package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultVisibilityTimeout is how long a received message stays hidden.
const DefaultVisibilityTimeout = 5 * time.Minute

const memoryPollInterval = 10 * time.Millisecond

type memoryInflight struct {
	body     []byte
	deadline time.Time
}

type memoryQueue struct {
	pending  [][]byte
	inflight map[string]memoryInflight
}

// Memory is an in-process Queue for single-process runs and tests.
type Memory struct {
	mu         sync.Mutex
	queues     map[string]*memoryQueue
	visibility time.Duration
	now        func() time.Time
}

// NewMemory creates a memory queue. A zero visibility uses
// DefaultVisibilityTimeout.
func NewMemory(visibility time.Duration) *Memory {
	if visibility <= 0 {
		visibility = DefaultVisibilityTimeout
	}
	return &Memory{
		queues:     make(map[string]*memoryQueue),
		visibility: visibility,
		now:        time.Now,
	}
}

func (m *Memory) queue(name string) *memoryQueue {
	q, ok := m.queues[name]
	if !ok {
		q = &memoryQueue{inflight: make(map[string]memoryInflight)}
		m.queues[name] = q
	}
	return q
}

// requeueExpired must be called with m.mu held.
func (m *Memory) requeueExpired(q *memoryQueue) {
	now := m.now()
	for handle, msg := range q.inflight {
		if !now.Before(msg.deadline) {
			q.pending = append(q.pending, msg.body)
			delete(q.inflight, handle)
		}
	}
}

func (m *Memory) Send(_ context.Context, queue string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue(queue)
	q.pending = append(q.pending, append([]byte(nil), payload...))
	return nil
}

func (m *Memory) Receive(ctx context.Context, queue string, max int, wait time.Duration) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	deadline := time.Now().Add(wait)
	for {
		if msgs := m.take(queue, max); len(msgs) > 0 {
			return msgs, nil
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(memoryPollInterval):
		}
	}
}

func (m *Memory) take(queue string, max int) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue(queue)
	m.requeueExpired(q)

	n := min(max, len(q.pending))
	if n == 0 {
		return nil
	}
	msgs := make([]Message, 0, n)
	for _, body := range q.pending[:n] {
		handle := uuid.NewString()
		q.inflight[handle] = memoryInflight{body: body, deadline: m.now().Add(m.visibility)}
		msgs = append(msgs, Message{ReceiptHandle: handle, Body: body})
	}
	q.pending = q.pending[n:]
	return msgs
}

func (m *Memory) Delete(_ context.Context, queue, receiptHandle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue(queue)
	if _, ok := q.inflight[receiptHandle]; !ok {
		return ErrUnknownReceipt
	}
	delete(q.inflight, receiptHandle)
	return nil
}

func (m *Memory) Count(_ context.Context, queue string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue(queue)
	return len(q.pending) + len(q.inflight), nil
}
