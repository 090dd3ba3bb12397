// Package api exposes the HTTP triggers of the crawler.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/semcrawl/indexing"
	"github.com/c360studio/semcrawl/metrics"
	"github.com/c360studio/semcrawl/queue"
)

// maxRequestBody caps the size of an index request.
const maxRequestBody = 32 << 20

// Reindexer starts full reindex runs.
type Reindexer interface {
	StartReindex(ctx context.Context) (bool, error)
	Running() bool
}

// Indexer processes single index requests.
type Indexer interface {
	Index(ctx context.Context, dto *indexing.ResourceIndexingDTO, opts indexing.Options) error
}

// DrainState reports which queue drains are running.
type DrainState interface {
	Busy() (reindex, index bool)
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Reindexer Reindexer
	Indexer   Indexer
	// Queue receives index requests. Requests are processed in the
	// background when it is nil.
	Queue   queue.Queue
	Drains  DrainState
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Handler serves the trigger endpoints. Work it starts in the background
// runs under the context given to NewHandler.
type Handler struct {
	deps   Deps
	ctx    context.Context
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewHandler creates a handler. ctx bounds background work.
func NewHandler(ctx context.Context, deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{deps: deps, ctx: ctx, logger: logger}
}

// RegisterHTTPHandlers registers the trigger endpoints under prefix, which
// should include the trailing slash (e.g. "/api/").
func (h *Handler) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	mux.HandleFunc(prefix+"reindex", h.handleReindex)
	mux.HandleFunc(prefix+"index", h.handleIndex)
	mux.HandleFunc("/health", h.handleHealth)
	if h.deps.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Wait blocks until background work started by the handler has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// AcceptedResponse is returned by the trigger endpoints.
type AcceptedResponse struct {
	Status  string `json:"status"`
	PidURI  string `json:"pidUri,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports the state of the background loops.
type HealthResponse struct {
	Status              string `json:"status"`
	ReindexRunning      bool   `json:"reindexRunning"`
	ReindexDrainRunning bool   `json:"reindexDrainRunning"`
	IndexDrainRunning   bool   `json:"indexDrainRunning"`
}

// handleReindex handles POST /api/reindex.
func (h *Handler) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.deps.Reindexer.Running() {
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "already_running", Message: "A reindex is already in progress"})
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		started, err := h.deps.Reindexer.StartReindex(h.ctx)
		switch {
		case err != nil:
			h.logger.Error("Reindex failed", "error", err)
		case !started:
			h.logger.Info("Reindex request dropped, another run is in progress")
		}
	}()
	writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "started"})
}

// handleIndex handles POST /api/index.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var dto indexing.ResourceIndexingDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&dto); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Invalid request body: "+err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if h.deps.Queue != nil {
		data, err := json.Marshal(&dto)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "encode_error", "Failed to encode request")
			return
		}
		if err := h.deps.Queue.Send(r.Context(), queue.Index, data); err != nil {
			h.logger.Error("Failed to enqueue index request", "pid_uri", dto.PidURI, "error", err)
			writeJSONError(w, http.StatusServiceUnavailable, "queue_error", "Failed to enqueue request")
			return
		}
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "queued", PidURI: dto.PidURI})
		return
	}

	opts := indexing.DefaultOptions()
	if dto.PIDOnly() {
		opts.Deletion = indexing.OutboundLinksOnly
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.deps.Indexer.Index(h.ctx, &dto, opts); err != nil {
			h.logger.Error("Index request failed",
				"pid_uri", dto.PidURI,
				"action", dto.Action,
				"error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted", PidURI: dto.PidURI})
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := HealthResponse{Status: "ok", ReindexRunning: h.deps.Reindexer.Running()}
	if h.deps.Drains != nil {
		resp.ReindexDrainRunning, resp.IndexDrainRunning = h.deps.Drains.Busy()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: errorCode, Message: message})
}
