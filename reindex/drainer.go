package reindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/semcrawl/indexing"
	"github.com/c360studio/semcrawl/metrics"
	"github.com/c360studio/semcrawl/queue"
)

// DrainerConfig configures the queue drains.
type DrainerConfig struct {
	BatchSize int
	Wait      time.Duration
}

// DefaultDrainerConfig returns the default configuration.
func DefaultDrainerConfig() DrainerConfig {
	return DrainerConfig{BatchSize: 10, Wait: time.Second}
}

// Result summarises one drain.
type Result struct {
	// Skipped is set when another drain of the same queue was running.
	Skipped   bool
	Processed int
	Failed    int
	Malformed int
}

// Drainer consumes the reindex and index queues.
type Drainer struct {
	queue   queue.Queue
	indexer Indexer

	reindexGuard Guard
	indexGuard   Guard

	config  DrainerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDrainer creates a drainer.
func NewDrainer(q queue.Queue, indexer Indexer, config DrainerConfig, m *metrics.Metrics, logger *slog.Logger) *Drainer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultDrainerConfig().BatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{queue: q, indexer: indexer, config: config, metrics: m, logger: logger}
}

// ReindexGuard returns the guard held while the reindex queue drains.
func (d *Drainer) ReindexGuard() *Guard {
	return &d.reindexGuard
}

// Busy reports which drains are running.
func (d *Drainer) Busy() (reindex, index bool) {
	return d.reindexGuard.Running(), d.indexGuard.Running()
}

// DrainReindexQueue indexes every queued reindex unit.
func (d *Drainer) DrainReindexQueue(ctx context.Context) (Result, error) {
	return d.drain(ctx, queue.Reindex, &d.reindexGuard, func(ctx context.Context, body []byte) (string, func() error, error) {
		unit, err := DecodeUnit(body)
		if err != nil {
			return "", nil, err
		}
		return unit.PidURI, func() error {
			return d.indexer.IndexPID(ctx, indexing.ActionReindex, unit.PidURI, indexing.ReindexOptions())
		}, nil
	})
}

// DrainIndexQueue processes every queued index request.
func (d *Drainer) DrainIndexQueue(ctx context.Context) (Result, error) {
	return d.drain(ctx, queue.Index, &d.indexGuard, func(ctx context.Context, body []byte) (string, func() error, error) {
		dto, err := DecodeRequest(body)
		if err != nil {
			return "", nil, err
		}
		opts := indexing.DefaultOptions()
		if dto.PIDOnly() {
			opts.Deletion = indexing.OutboundLinksOnly
		}
		return dto.PidURI, func() error {
			return d.indexer.Index(ctx, dto, opts)
		}, nil
	})
}

// decodeFunc decodes a message and returns the work it stands for.
type decodeFunc func(ctx context.Context, body []byte) (item string, work func() error, err error)

// drain receives batches until the queue is empty. Messages are deleted
// before they are processed; payloads that cannot be decoded stay on the
// queue for redelivery.
func (d *Drainer) drain(ctx context.Context, name string, guard *Guard, decode decodeFunc) (Result, error) {
	if !guard.TryAcquire() {
		d.metrics.DrainRun(name, "skipped")
		return Result{Skipped: true}, nil
	}
	defer guard.Release()

	var res Result
	for {
		msgs, err := d.queue.Receive(ctx, name, d.config.BatchSize, d.config.Wait)
		if err != nil {
			d.metrics.DrainRun(name, "error")
			return res, fmt.Errorf("receive from %s queue: %w", name, err)
		}
		if len(msgs) == 0 {
			break
		}

		for _, msg := range msgs {
			item, work, err := decode(ctx, msg.Body)
			if err != nil {
				res.Malformed++
				d.metrics.ItemFailure("decode")
				d.logger.Error("Malformed queue message, leaving it for redelivery",
					"queue", name,
					"error", err)
				continue
			}

			if err := d.queue.Delete(ctx, name, msg.ReceiptHandle); err != nil {
				d.logger.Warn("Failed to delete queue message",
					"queue", name,
					"pid_uri", item,
					"error", err)
			}

			res.Processed++
			if err := work(); err != nil {
				res.Failed++
				d.logger.Error("Failed to process queue message",
					"queue", name,
					"pid_uri", item,
					"error", err)
			}
		}
	}

	if res.Processed > 0 || res.Malformed > 0 {
		d.logger.Info("Drained queue",
			"queue", name,
			"processed", res.Processed,
			"failed", res.Failed,
			"malformed", res.Malformed)
	}
	d.metrics.DrainRun(name, "completed")
	return res, nil
}

// Run drains both queues on every tick until ctx is cancelled. Ticks that
// arrive while a drain is still running are dropped.
func (d *Drainer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("Queue drains started", "interval", interval)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Queue drains stopped")
			return
		case <-ticker.C:
			wg.Add(2)
			go func() {
				defer wg.Done()
				d.logDrain(d.DrainReindexQueue(ctx))
			}()
			go func() {
				defer wg.Done()
				d.logDrain(d.DrainIndexQueue(ctx))
			}()
		}
	}
}

func (d *Drainer) logDrain(_ Result, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Error("Queue drain failed", "error", err)
	}
}
