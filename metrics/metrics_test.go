package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semcrawl/storage"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.Document("update")
	m.Document("update")
	m.Deletion()
	m.CacheLookup(storage.NamespaceResource, true)
	m.CacheLookup(storage.NamespaceResource, false)
	m.Resolution(time.Second, nil)
	m.ReindexStarted()
	m.ReindexFinished(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeletionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("resource", "hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ReindexInProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReindexRunsTotal.WithLabelValues("failure")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Document("create")
		m.Deletion()
		m.Cascade("counterpart")
		m.ItemFailure("assemble")
		m.Resolution(time.Millisecond, nil)
		m.CacheLookup(storage.NamespaceEntity, false)
		m.DrainRun("index", "ran")
		m.ReindexUnit()
		m.ReindexStarted()
		m.ReindexFinished(nil)
	})
}
