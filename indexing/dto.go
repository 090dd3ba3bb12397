package indexing

import (
	"errors"
	"fmt"

	"github.com/c360studio/semcrawl/graph"
)

// ResourceIndexingDTO is a request to index one resource.
//
// A DTO without Resource and RepoResources only names a PID; the indexer
// resolves it before indexing.
type ResourceIndexingDTO struct {
	Action        Action              `json:"action"`
	PidURI        string              `json:"pidUri"`
	Resource      *graph.Resource     `json:"resource,omitempty"`
	RepoResources *graph.ResourcesCTO `json:"repoResources,omitempty"`
	// LifecycleStatus names the affected variant when Resource is absent.
	LifecycleStatus graph.LifecycleStatus `json:"lifecycleStatus,omitempty"`
}

// CurrentLifecycleStatus returns the lifecycle status of the resource
// being indexed.
func (d *ResourceIndexingDTO) CurrentLifecycleStatus() graph.LifecycleStatus {
	if d.Resource != nil {
		if s := d.Resource.LifecycleStatus(); s != graph.LifecycleUnknown {
			return s
		}
	}
	return d.LifecycleStatus
}

// InboundProperties returns the edges pointing at the resource.
func (d *ResourceIndexingDTO) InboundProperties() graph.Properties {
	if d.Resource == nil {
		return nil
	}
	return d.Resource.InboundProperties
}

// PIDOnly reports whether the DTO carries no resource snapshot.
func (d *ResourceIndexingDTO) PIDOnly() bool {
	return d.Resource == nil && d.RepoResources == nil
}

// Validate checks the request.
func (d *ResourceIndexingDTO) Validate() error {
	if d == nil {
		return errors.New("indexing request is required")
	}
	if !d.Action.Valid() {
		return fmt.Errorf("invalid action %q", d.Action)
	}
	if d.PidURI == "" {
		return errors.New("pidUri is required")
	}
	return nil
}
