package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/semcrawl/graph"
	"github.com/c360studio/semcrawl/sparql"
)

// Graphs names the named graphs the repositories read from.
type Graphs struct {
	Draft     string
	Published string
	Metadata  []string
	Entities  []string
}

// Instances returns the draft and published graphs that are set.
func (g Graphs) Instances() []string {
	var out []string
	if g.Draft != "" {
		out = append(out, g.Draft)
	}
	if g.Published != "" {
		out = append(out, g.Published)
	}
	return out
}

// Resources reads catalogue entries from the triple store.
type Resources struct {
	store  sparql.Store
	graphs Graphs
	logger *slog.Logger
}

// NewResources creates a resource repository.
func NewResources(store sparql.Store, graphs Graphs, logger *slog.Logger) *Resources {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resources{store: store, graphs: graphs, logger: logger}
}

// Graphs returns the graphs the repository reads from.
func (r *Resources) Graphs() Graphs {
	return r.graphs
}

// Exists reports whether pidURI is present in graph and which lifecycle
// status it carries there. Invalid PID URIs do not exist.
func (r *Resources) Exists(ctx context.Context, pidURI, graphName string) (bool, graph.LifecycleStatus, error) {
	q := ExistsQuery(pidURI, graphName, r.graphs.Metadata)
	if q == nil {
		return false, graph.LifecycleUnknown, nil
	}
	rs, err := r.store.Query(ctx, q)
	if err != nil {
		return false, graph.LifecycleUnknown, fmt.Errorf("check existence of %s: %w", pidURI, err)
	}
	if rs.Empty() {
		return false, graph.LifecycleUnknown, nil
	}
	return true, graph.ParseLifecycleStatus(rs.Bindings()[0].Value("lifecycleStatus")), nil
}

// Fetch loads every variant of pidURI found in graphs as folded resources.
func (r *Resources) Fetch(ctx context.Context, pidURI string, graphs []string) ([]*graph.Resource, error) {
	if len(graphs) == 0 {
		return nil, nil
	}
	q := ResourceQuery(pidURI, graphs, r.graphs.Metadata)
	if q == nil {
		return nil, nil
	}
	rs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch resource %s: %w", pidURI, err)
	}
	return graph.FoldResources(ResourceRows(rs)), nil
}

// Versions returns the version chain of pidURI, oldest first. A chain with
// a missing link is truncated to the part reachable from the newest entry.
func (r *Resources) Versions(ctx context.Context, pidURI string, graphs []string) ([]graph.VersionOverview, error) {
	if len(graphs) == 0 {
		return nil, nil
	}
	q := VersionsQuery(pidURI, graphs)
	if q == nil {
		return nil, nil
	}
	rs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch versions of %s: %w", pidURI, err)
	}
	entries := VersionRows(rs)
	ordered, complete := graph.OrderVersions(entries)
	if !complete {
		r.logger.Warn("Version chain is broken, keeping reachable part",
			"pid_uri", pidURI,
			"entries", len(entries),
			"kept", len(ordered))
	}
	return ordered, nil
}

// AllPidURIs lists the distinct PID URIs of every entry in the draft and
// published graphs.
func (r *Resources) AllPidURIs(ctx context.Context) ([]string, error) {
	rs, err := r.store.Query(ctx, AllPidURIsQuery(r.graphs.Instances(), r.graphs.Metadata))
	if err != nil {
		return nil, fmt.Errorf("list pid uris: %w", err)
	}
	seen := make(map[string]bool, len(rs.Bindings()))
	var out []string
	for _, b := range rs.Bindings() {
		pid := b.Value("pidUri")
		if pid == "" || seen[pid] {
			continue
		}
		seen[pid] = true
		out = append(out, pid)
	}
	return out, nil
}
