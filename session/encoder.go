package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is the snapshot format written by [Encode].
const CurrentSchemaVersion = 1

// ErrUnsupportedSchema is returned by [Decode] for unknown snapshot versions.
var ErrUnsupportedSchema = errors.New("unsupported session schema version")

type envelope struct {
	Version int             `json:"v"`
	Session json.RawMessage `json:"session"`
}

// Encode serializes a snapshot into the current schema.
func Encode(s Snapshot) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: CurrentSchemaVersion, Session: body})
}

// Decode parses a persisted snapshot.
func Decode(data []byte) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, fmt.Errorf("decode session envelope: %w", err)
	}
	if env.Version != CurrentSchemaVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedSchema, env.Version)
	}
	var s Snapshot
	if len(env.Session) > 0 {
		if err := json.Unmarshal(env.Session, &s); err != nil {
			return Snapshot{}, fmt.Errorf("decode session body: %w", err)
		}
	}
	return s, nil
}
