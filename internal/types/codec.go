package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns envelopes into websocket frames and back.
type Codec interface {
	Name() string
	Binary() bool
	Encode(msg ServerMessage) ([]byte, error)
	Decode(data []byte, cm *ClientMessage) error
}

const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

func CodecFor(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }
func (JSONCodec) Binary() bool { return false }

func (JSONCodec) Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Decode(data []byte, cm *ClientMessage) error {
	return json.Unmarshal(data, cm)
}

// MsgpackCodec reuses the json struct tags so both codecs share field names.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return CodecMsgpack }
func (MsgpackCodec) Binary() bool { return true }

func (MsgpackCodec) Encode(msg ServerMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Decode(data []byte, cm *ClientMessage) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(cm)
}
