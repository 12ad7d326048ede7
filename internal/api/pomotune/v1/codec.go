package pomotunev1

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// JSONCodec marshals plain Go messages as JSON. It replaces Connect's
// protobuf-only "json" codec on both handlers and clients.
type JSONCodec struct{}

// Name implements connect.Codec.
func (JSONCodec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(message any) ([]byte, error) {
	b, err := json.Marshal(message)
	if err != nil {
		return nil, errors.Wrap(err, "marshal message")
	}
	return b, nil
}

// Unmarshal implements connect.Codec.
func (JSONCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return errors.Wrap(err, "unmarshal message")
	}
	return nil
}
