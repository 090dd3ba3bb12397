package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcrawl/config"
	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/indexing"
	"github.com/c360studio/semcrawl/queue"
	"github.com/c360studio/semcrawl/sparql"
)

// emptyStore answers every query with no bindings.
type emptyStore struct {
	mu      sync.Mutex
	queries int
}

func (s *emptyStore) Query(_ context.Context, q *sparql.Query) (*sparql.ResultSet, error) {
	if _, err := q.Build(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()
	return &sparql.ResultSet{}, nil
}

func localConfig() *config.Config {
	cfg := config.DefaultConfig()
	disabled := false
	cfg.Queues.Enabled = &disabled
	cfg.Cache.Backend = config.CacheMemory
	cfg.NATS.URL = ""
	return cfg
}

func newLocalApp(t *testing.T, opts ...appOption) (*App, *emptyStore) {
	t.Helper()
	cfg := localConfig()
	require.NoError(t, cfg.Validate())

	store := &emptyStore{}
	app, err := NewApp(context.Background(), cfg, newLogger("error"), append(opts, withStore(store))...)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close(context.Background()) })
	return app, store
}

func TestNewAppWithoutNATS(t *testing.T) {
	app, _ := newLocalApp(t)

	assert.Nil(t, app.natsClient)
	assert.NotNil(t, app.Queue)
	assert.NotNil(t, app.Cache)
	assert.NotNil(t, app.Indexer)
	assert.NotNil(t, app.Coordinator)
	assert.False(t, app.Coordinator.Running())
}

func TestHandlerHealth(t *testing.T) {
	app, _ := newLocalApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := http.NewServeMux()
	app.Handler(ctx).RegisterHTTPHandlers("/api/", mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["reindexRunning"])
}

func TestResolveUnknownResource(t *testing.T) {
	app, store := newLocalApp(t)

	var out bytes.Buffer
	err := resolveTo(context.Background(), app, "https://pid.example.org/unknown", &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrNotFound)
	assert.Empty(t, out.String())
	assert.Equal(t, 2, store.queries, "one existence check per graph")
}

func TestDocumentUsesRecorder(t *testing.T) {
	recorder := &indexing.Recorder{}
	app, _ := newLocalApp(t, withPublisher(recorder))

	var out bytes.Buffer
	_ = documentTo(context.Background(), app, recorder, "https://pid.example.org/unknown", &out)

	n, err := app.Queue.Count(context.Background(), queue.Documents)
	require.NoError(t, err)
	assert.Zero(t, n, "documents are recorded, not queued")
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "semcrawl version "+Version)
}
