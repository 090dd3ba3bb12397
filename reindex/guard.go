// Package reindex runs full reindex sweeps and drains the control queues
// that feed the indexer.
package reindex

import "sync/atomic"

// Guard lets at most one holder run at a time. Callers that fail to
// acquire it drop their work instead of waiting.
type Guard struct {
	running atomic.Bool
}

// TryAcquire takes the guard if it is free.
func (g *Guard) TryAcquire() bool {
	return g.running.CompareAndSwap(false, true)
}

// Release frees the guard.
func (g *Guard) Release() {
	g.running.Store(false)
}

// Running reports whether the guard is held.
func (g *Guard) Running() bool {
	return g.running.Load()
}
