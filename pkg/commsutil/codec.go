package commsutil

import (
	"encoding/json"
	"fmt"

	comms "github.com/nats-io/nats.go"
)

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Respond encodes v and sends it as the reply to msg. Messages without a reply subject are
// dropped silently.
func Respond(msg *comms.Msg, v interface{}) error {
	if msg.Reply == "" {
		return nil
	}
	data, err := EncodePayload(v)
	if err != nil {
		return fmt.Errorf("commsutil:codec - failed to encode reply: %w", err)
	}
	if err := msg.Respond(data); err != nil {
		return fmt.Errorf("commsutil:codec - failed to send reply: %w", err)
	}
	return nil
}
