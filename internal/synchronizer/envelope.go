package synchronizer

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope types.
const (
	TypeModel   = "model"
	TypeCommand = "command"
	TypeUpdate  = "update"
)

// ErrMalformedEnvelope marks a message that could not be decoded. The session
// stays usable.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Envelope is one message exchanged with the backend.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope encodes v as the payload of an envelope of type typ.
func NewEnvelope(typ string, v any) (Envelope, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s payload: %w", typ, err)
	}
	return Envelope{Type: typ, Payload: payload}, nil
}

// DecodeEnvelope parses a raw message.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	return env, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: empty %s payload", ErrMalformedEnvelope, e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedEnvelope, e.Type, err)
	}
	return nil
}
