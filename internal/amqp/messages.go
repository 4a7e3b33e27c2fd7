package amqp

import (
	"encoding/json"
	"fmt"

	"orcamento/internal/core"
)

// EncodeChangeEvent converts the event to its JSON wire form.
func EncodeChangeEvent(ev core.ChangeEvent) ([]byte, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// DecodeChangeEvent parses and validates a message body.
func DecodeChangeEvent(data []byte) (core.ChangeEvent, error) {
	var ev core.ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.ChangeEvent{}, fmt.Errorf("unmarshal change event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return core.ChangeEvent{}, fmt.Errorf("invalid change event: %w", err)
	}
	return ev, nil
}
