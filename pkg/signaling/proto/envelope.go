package proto

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire frame: a named event with a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Marshal encodes an event with its payload into a wire frame.
func Marshal(event string, data interface{}) ([]byte, error) {
	env := Envelope{Event: event}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}

	return json.Marshal(env)
}

// Unmarshal decodes a wire frame. Frames without an event name are invalid.
func Unmarshal(data []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("proto: invalid message data: %s", err.Error())
	}

	if env.Event == "" {
		return nil, fmt.Errorf("proto: message does not contain an event name")
	}

	return env, nil
}

// DecodeData unmarshals the payload into the expected request type.
func (env *Envelope) DecodeData(v interface{}) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("proto: %s message has no payload", env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("proto: invalid %s payload: %s", env.Event, err.Error())
	}
	return nil
}

// ErrorEventFor returns the error event matching an inbound event.
func ErrorEventFor(inbound string) string {
	if inbound == EventAuth {
		return EventAuthError
	}
	return EventCallError
}
