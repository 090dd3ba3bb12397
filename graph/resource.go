package graph

import "github.com/c360studio/semcrawl/vocabulary/colid"

// LifecycleStatus is the entry lifecycle status of a resource.
type LifecycleStatus string

const (
	LifecycleUnknown           LifecycleStatus = ""
	LifecycleDraft             LifecycleStatus = "draft"
	LifecyclePublished         LifecycleStatus = "published"
	LifecycleMarkedForDeletion LifecycleStatus = "markedForDeletion"
)

// ParseLifecycleStatus maps a lifecycle IRI or short name to a status.
func ParseLifecycleStatus(s string) LifecycleStatus {
	switch s {
	case colid.LifecycleDraft, string(LifecycleDraft):
		return LifecycleDraft
	case colid.LifecyclePublished, string(LifecyclePublished):
		return LifecyclePublished
	case colid.LifecycleMarkedForDeletion, string(LifecycleMarkedForDeletion):
		return LifecycleMarkedForDeletion
	default:
		return LifecycleUnknown
	}
}

// IRI returns the lifecycle IRI stored in the graph.
func (s LifecycleStatus) IRI() string {
	switch s {
	case LifecycleDraft:
		return colid.LifecycleDraft
	case LifecyclePublished:
		return colid.LifecyclePublished
	case LifecycleMarkedForDeletion:
		return colid.LifecycleMarkedForDeletion
	default:
		return ""
	}
}

// IsPublished reports whether the status counts as published for indexing.
// Entries marked for deletion stay published until physically removed.
func (s LifecycleStatus) IsPublished() bool {
	return s == LifecyclePublished || s == LifecycleMarkedForDeletion
}

// Resource is a top-level catalogue entry.
type Resource struct {
	Entity

	PidURI           string            `json:"pidUri"`
	PublishedVersion string            `json:"publishedVersion,omitempty"`
	Versions         []VersionOverview `json:"versions,omitempty"`
}

// VersionOverview is one member of a version chain.
type VersionOverview struct {
	ID               string          `json:"id"`
	Version          string          `json:"version"`
	PidURI           string          `json:"pidUri"`
	BaseURI          string          `json:"baseUri,omitempty"`
	LifecycleStatus  LifecycleStatus `json:"lifecycleStatus"`
	PublishedVersion string          `json:"publishedVersion,omitempty"`
	LaterVersion     string          `json:"laterVersion,omitempty"`
}

// HasPublishedVersion reports whether the chain member is visible in the
// published catalogue.
func (v VersionOverview) HasPublishedVersion() bool {
	return v.LifecycleStatus.IsPublished() || v.PublishedVersion != ""
}

// ResourcesCTO pairs the draft and published variants of one PID.
type ResourcesCTO struct {
	Draft     *Resource         `json:"draft,omitempty"`
	Published *Resource         `json:"published,omitempty"`
	Versions  []VersionOverview `json:"versions,omitempty"`
}

// Get returns the variant for status.
func (c *ResourcesCTO) Get(status LifecycleStatus) *Resource {
	if c == nil {
		return nil
	}
	if status == LifecycleDraft {
		return c.Draft
	}
	if status.IsPublished() {
		return c.Published
	}
	return nil
}

// Counterpart returns the other variant of r, if it exists.
func (c *ResourcesCTO) Counterpart(r *Resource) *Resource {
	if c == nil || r == nil {
		return nil
	}
	if r.LifecycleStatus() == LifecycleDraft {
		return c.Published
	}
	return c.Draft
}

// Variants returns the existing variants, draft first.
func (c *ResourcesCTO) Variants() []*Resource {
	if c == nil {
		return nil
	}
	var out []*Resource
	if c.Draft != nil {
		out = append(out, c.Draft)
	}
	if c.Published != nil {
		out = append(out, c.Published)
	}
	return out
}

// Empty reports whether neither variant exists.
func (c *ResourcesCTO) Empty() bool {
	return c == nil || (c.Draft == nil && c.Published == nil)
}
