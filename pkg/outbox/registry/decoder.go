package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// ErrNoDecoder is returned by Decode for event types or versions nobody
// registered. Consumers treat it as "not for me" and acknowledge.
var ErrNoDecoder = errors.New("no decoder registered")

type decodeFunc func(payload json.RawMessage) (any, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// Decoders maps (event type, envelope version) to a payload decoder. Build
// it fully before sharing; it is read-only afterwards.
type Decoders struct {
	byKey map[decoderKey]decodeFunc
}

func NewDecoders() *Decoders {
	return &Decoders{byKey: make(map[decoderKey]decodeFunc)}
}

// RegisterJSON decodes eventType at version into a fresh *T.
func RegisterJSON[T any](d *Decoders, eventType enums.OutboxEventType, version int) {
	d.byKey[decoderKey{eventType: eventType, version: version}] = func(payload json.RawMessage) (any, error) {
		target := new(T)
		if err := json.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("decode %s@v%d: %w", eventType, version, err)
		}
		return target, nil
	}
}

// Handles reports whether any version of eventType is registered.
func (d *Decoders) Handles(eventType enums.OutboxEventType) bool {
	for key := range d.byKey {
		if key.eventType == eventType {
			return true
		}
	}
	return false
}

func (d *Decoders) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	decode, ok := d.byKey[decoderKey{eventType: eventType, version: version}]
	if !ok {
		return nil, fmt.Errorf("%w for %s@v%d", ErrNoDecoder, eventType, version)
	}
	return decode(payload)
}
