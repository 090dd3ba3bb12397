package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemError(t *testing.T) {
	base := errors.New("boom")
	err := NewItemError("assemble", "https://pid.example.org/1", base)

	assert.True(t, IsItemError(err))
	assert.True(t, IsItemError(fmt.Errorf("drain: %w", err)))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "assemble https://pid.example.org/1")

	assert.Nil(t, NewItemError("assemble", "x", nil))
	assert.False(t, IsItemError(base))
}

func TestUpstreamErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create index: %w", &UpstreamError{Service: "search", StatusCode: 502})

	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrNotFound)

	var upstream *UpstreamError
	if assert.ErrorAs(t, err, &upstream) {
		assert.Equal(t, 502, upstream.StatusCode)
	}
}

func TestSerialization(t *testing.T) {
	err := Serialization(errors.New("unexpected EOF"))
	assert.ErrorIs(t, err, ErrSerialization)
	assert.Contains(t, err.Error(), "unexpected EOF")
}
