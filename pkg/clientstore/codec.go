package clientstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Migration rewrites a payload from version N to N+1.
type Migration func(payload json.RawMessage) (json.RawMessage, error)

type envelope struct {
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Codec wraps values of T in a {"version","payload"} envelope and upgrades
// older payloads through registered migrations on decode.
type Codec[T any] struct {
	version    int
	migrations map[int]Migration
}

// NewCodec builds a codec for the given current version. migrations is keyed
// by the version each migration upgrades from.
func NewCodec[T any](version int, migrations map[int]Migration) *Codec[T] {
	if migrations == nil {
		migrations = map[int]Migration{}
	}
	return &Codec[T]{version: version, migrations: migrations}
}

func (c *Codec[T]) Version() int {
	return c.version
}

func (c *Codec[T]) Encode(value T) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return json.Marshal(envelope{Version: c.version, Payload: payload})
}

// Decode unwraps raw and migrates it to the current version. A blob with no
// envelope is treated as version 0.
func (c *Codec[T]) Decode(raw []byte) (T, error) {
	var zero T
	version, payload, err := unwrap(raw)
	if err != nil {
		return zero, err
	}
	if version > c.version {
		return zero, fmt.Errorf("%w: stored v%d is newer than v%d", ErrUnsupportedVersion, version, c.version)
	}
	for version < c.version {
		migrate, ok := c.migrations[version]
		if !ok {
			return zero, fmt.Errorf("%w: no migration from v%d", ErrUnsupportedVersion, version)
		}
		if payload, err = migrate(payload); err != nil {
			return zero, fmt.Errorf("migrate v%d: %w", version, err)
		}
		version++
	}

	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return value, nil
}

func unwrap(raw []byte) (int, json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return 0, nil, ErrCorrupt
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, trimmed, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	rawVersion, hasVersion := fields["version"]
	payload, hasPayload := fields["payload"]
	if !hasVersion || !hasPayload || len(fields) != 2 {
		return 0, trimmed, nil
	}
	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil || version < 0 {
		return 0, nil, fmt.Errorf("%w: bad version %s", ErrCorrupt, rawVersion)
	}
	return version, payload, nil
}
