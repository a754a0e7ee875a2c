package splitv1connect

import (
	"encoding/json"
	"fmt"
)

// jsonCodec serializes the plain Go messages in package splitv1. It replaces
// Connect's protobuf JSON codec under the same name, so clients sending
// application/json need nothing special.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
