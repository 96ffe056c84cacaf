// Package claimrpc defines the claimflow RPC surface: message types,
// procedure names, the JSON codec and typed handler and client constructors
// for connectrpc.com/connect.
package claimrpc

import (
	"fmt"

	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// Codec marshals plain Go message structs as JSON. It replaces connect's
// default "json" codec, which only accepts protobuf messages.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithCodec is the option every handler and client in this package uses.
func WithCodec() connect.Option {
	return connect.WithCodec(Codec{})
}
