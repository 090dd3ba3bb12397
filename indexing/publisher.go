package indexing

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360studio/semcrawl/queue"
)

// Publisher delivers documents to the search service.
type Publisher interface {
	PublishDocument(ctx context.Context, msg *Message) error
	PublishDeletion(ctx context.Context, msg *Message) error
}

// QueuePublisher sends documents and deletions to their queues.
type QueuePublisher struct {
	queue queue.Queue
}

// NewQueuePublisher creates a publisher backed by q.
func NewQueuePublisher(q queue.Queue) *QueuePublisher {
	return &QueuePublisher{queue: q}
}

// PublishDocument sends msg to the document queue.
func (p *QueuePublisher) PublishDocument(ctx context.Context, msg *Message) error {
	return p.send(ctx, queue.Documents, msg)
}

// PublishDeletion sends msg to the deletion queue.
func (p *QueuePublisher) PublishDeletion(ctx context.Context, msg *Message) error {
	return p.send(ctx, queue.Deletions, msg)
}

func (p *QueuePublisher) send(ctx context.Context, name string, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid document message: %w", err)
	}
	data, err := EncodeMessage(msg)
	if err != nil {
		return err
	}
	if err := p.queue.Send(ctx, name, data); err != nil {
		return fmt.Errorf("send to %s queue: %w", name, err)
	}
	return nil
}

// Recorder keeps published messages in memory.
type Recorder struct {
	mu        sync.Mutex
	documents []*Message
	deletions []*Message
}

// PublishDocument records msg.
func (r *Recorder) PublishDocument(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, msg)
	return nil
}

// PublishDeletion records msg.
func (r *Recorder) PublishDeletion(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletions = append(r.deletions, msg)
	return nil
}

// Documents returns the recorded documents in publish order.
func (r *Recorder) Documents() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Message(nil), r.documents...)
}

// Deletions returns the recorded deletions in publish order.
func (r *Recorder) Deletions() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Message(nil), r.deletions...)
}
