package colid_test

import (
	"testing"

	"github.com/c360studio/semcrawl/vocabulary/colid"
	"github.com/c360studio/semstreams/vocabulary"
)

func TestPredicatesRegistered(t *testing.T) {
	tests := []struct {
		predicate   string
		expectedIRI string
	}{
		{colid.ResourcePID, colid.HasPID},
		{colid.ResourceLifecycle, colid.HasEntryLifecycleStatus},
		{colid.ResourceDraft, colid.HasDraft},
		{colid.VersionLater, colid.HasLaterVersion},
		{colid.DistributionMain, colid.MainDistribution},
	}

	for _, tt := range tests {
		t.Run(tt.predicate, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(tt.predicate)
			if meta == nil {
				t.Fatalf("predicate %q not registered", tt.predicate)
			}
			if meta.Description == "" {
				t.Errorf("predicate %q has no description", tt.predicate)
			}
			if meta.StandardIRI != tt.expectedIRI {
				t.Errorf("predicate %s: expected IRI %s, got %s", tt.predicate, tt.expectedIRI, meta.StandardIRI)
			}
		})
	}
}

func TestAlias(t *testing.T) {
	if got := colid.Alias(colid.HasLaterVersion); got != colid.VersionLater {
		t.Errorf("Alias(hasLaterVersion) = %q, want %q", got, colid.VersionLater)
	}
	unknown := "https://example.org/unknown"
	if got := colid.Alias(unknown); got != unknown {
		t.Errorf("Alias(unknown) = %q, want passthrough", got)
	}
}

func TestIsWhitelisted(t *testing.T) {
	if !colid.IsWhitelisted(colid.HasEntryLifecycleStatus) {
		t.Error("lifecycle status must be whitelisted")
	}
	if colid.IsWhitelisted(colid.LastChangeDateTime) {
		t.Error("last change date must not be whitelisted")
	}
}
