package reindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/semcrawl/fault"
	"github.com/c360studio/semcrawl/indexing"
)

// Unit is one PID scheduled by a reindex run.
type Unit struct {
	PidURI string `json:"pidUri"`
	RunID  string `json:"runId,omitempty"`
}

// DecodeUnit decodes a reindex queue payload. Besides Unit objects it
// accepts a JSON string or the bare PID URI.
func DecodeUnit(data []byte) (Unit, error) {
	trimmed := bytes.TrimSpace(data)
	var u Unit
	switch {
	case len(trimmed) == 0:
		return u, fault.Serialization(errors.New("empty reindex unit"))
	case trimmed[0] == '{':
		if err := json.Unmarshal(trimmed, &u); err != nil {
			return u, fault.Serialization(err)
		}
	case trimmed[0] == '"':
		if err := json.Unmarshal(trimmed, &u.PidURI); err != nil {
			return u, fault.Serialization(err)
		}
	default:
		u.PidURI = string(trimmed)
	}
	u.PidURI = strings.TrimSpace(u.PidURI)
	if u.PidURI == "" {
		return u, fault.Serialization(errors.New("reindex unit without pidUri"))
	}
	return u, nil
}

// DecodeRequest decodes an index queue payload into a request.
func DecodeRequest(data []byte) (*indexing.ResourceIndexingDTO, error) {
	var dto indexing.ResourceIndexingDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fault.Serialization(err)
	}
	if err := dto.Validate(); err != nil {
		return nil, fault.Serialization(fmt.Errorf("invalid request: %w", err))
	}
	return &dto, nil
}
