// Package queue is the message transport between the crawler's loops and
// the downstream search service.
package queue

import (
	"context"
	"errors"
	"time"
)

// Queue names used by the crawler.
const (
	// Reindex carries one PID URI per message during a full reindex.
	Reindex = "reindex"
	// Index carries resource indexing requests.
	Index = "index"
	// Documents carries generated index documents to the search service.
	Documents = "documents"
	// Deletions carries deletion documents to the search service.
	Deletions = "deletions"
)

// ErrUnknownReceipt is returned by Delete for handles that are not in
// flight, e.g. because their visibility expired.
var ErrUnknownReceipt = errors.New("unknown receipt handle")

// Message is a received message. It stays invisible to other receivers
// until deleted or until its visibility expires.
type Message struct {
	ReceiptHandle string
	Body          []byte
}

// Queue is the transport contract.
type Queue interface {
	Send(ctx context.Context, queue string, payload []byte) error
	// Receive returns up to max messages, waiting at most wait for the
	// first one.
	Receive(ctx context.Context, queue string, max int, wait time.Duration) ([]Message, error)
	Delete(ctx context.Context, queue, receiptHandle string) error
	// Count returns the number of messages not yet deleted, in flight
	// ones included.
	Count(ctx context.Context, queue string) (int, error)
}
