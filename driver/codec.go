package driver

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec serializes RPC envelopes for one wire format. The name doubles
// as the websocket subprotocol offered during the handshake.
type Codec interface {
	Name() string
	Binary() bool
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// request is the outbound RPC envelope.
type request struct {
	ID     uint64 `json:"id" msgpack:"id"`
	Method string `json:"method" msgpack:"method"`
	Params []any  `json:"params,omitempty" msgpack:"params,omitempty"`
}

// inbound is a decoded server frame. A set ID marks it as the reply to a
// request; without one it is a live notification carried in Result.
type inbound struct {
	ID     *uint64      `json:"id" msgpack:"id"`
	Result any          `json:"result" msgpack:"result"`
	Error  *RemoteError `json:"error" msgpack:"error"`
}

// JSONCodec sends envelopes as JSON text frames.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// MsgpackCodec sends envelopes as MessagePack binary frames.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Binary() bool { return true }

func (MsgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (MsgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
