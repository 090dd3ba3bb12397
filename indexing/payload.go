package indexing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "semcrawl",
		Category:    "document",
		Version:     "v1",
		Description: "Index document envelope for the search service",
		Factory:     func() any { return &Message{} },
	})
	if err != nil {
		panic("failed to register document payload: " + err.Error())
	}
}

// DocumentType is the message type of published documents.
var DocumentType = message.Type{Domain: "semcrawl", Category: "document", Version: "v1"}

// Schema returns the message type for this payload.
func (m *Message) Schema() message.Type { return DocumentType }

// Validate validates the envelope.
func (m *Message) Validate() error {
	if m.PidURI == "" {
		return errors.New("pidUri is required")
	}
	if m.Document == nil {
		return errors.New("document is required")
	}
	return nil
}

// MarshalJSON marshals the envelope to JSON.
func (m *Message) MarshalJSON() ([]byte, error) {
	type Alias Message
	return json.Marshal((*Alias)(m))
}

// UnmarshalJSON unmarshals the envelope from JSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	type Alias Message
	return json.Unmarshal(data, (*Alias)(m))
}

// EncodeMessage wraps msg in a base message.
func EncodeMessage(msg *Message) ([]byte, error) {
	data, err := json.Marshal(message.NewBaseMessage(DocumentType, msg, "semcrawl"))
	if err != nil {
		return nil, fmt.Errorf("marshal document message: %w", err)
	}
	return data, nil
}

// DecodeMessage unwraps a published document message.
func DecodeMessage(data []byte) (*Message, error) {
	var baseMsg message.BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		return nil, fmt.Errorf("unmarshal base message: %w", err)
	}
	if msg, ok := baseMsg.Payload().(*Message); ok {
		return msg, nil
	}
	// The payload may have been decoded as a generic type.
	payloadBytes, err := json.Marshal(baseMsg.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(payloadBytes, &msg); err != nil {
		return nil, fmt.Errorf("payload is not a document message: %w", err)
	}
	return &msg, nil
}
