package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"CoopDungeons/internal/game"
)

// Command is one client request, e.g.
//
//	{"type":"session:enter","payload":{"instanceId":"..."}}
type Command struct {
	Type    string         `json:"type" msgpack:"type"`
	Payload CommandPayload `json:"payload" msgpack:"payload"`
}

type CommandPayload struct {
	DefinitionID string  `json:"definitionId,omitempty" msgpack:"definitionId,omitempty"`
	InstanceID   string  `json:"instanceId,omitempty" msgpack:"instanceId,omitempty"`
	RoomID       string  `json:"roomId,omitempty" msgpack:"roomId,omitempty"`
	X            float64 `json:"x,omitempty" msgpack:"x,omitempty"`
	Y            float64 `json:"y,omitempty" msgpack:"y,omitempty"`
	Z            float64 `json:"z,omitempty" msgpack:"z,omitempty"`
}

// Codec frames commands and events for one connection.
type Codec interface {
	Name() string
	// FrameType is the websocket message type the codec writes.
	FrameType() int
	Encode(ev game.Event) ([]byte, error)
	Decode(data []byte) (Command, error)
}

// CodecFor picks a codec by name; unknown names get JSON.
func CodecFor(name string) Codec {
	switch strings.ToLower(name) {
	case "msgpack":
		return msgpackCodec{}
	case "proto", "protobuf":
		return protoCodec{}
	default:
		return jsonCodec{}
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string   { return "json" }
func (jsonCodec) FrameType() int { return websocket.TextMessage }

func (jsonCodec) Encode(ev game.Event) ([]byte, error) {
	return json.Marshal(ev)
}

func (jsonCodec) Decode(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, game.ErrBadRequest.Wrap(err)
	}
	return cmd, nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return "msgpack" }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(ev game.Event) ([]byte, error) {
	// payloads carry json tags only; flatten them first so field names match
	// the other codecs.
	m, err := eventMap(ev)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(m)
}

func (msgpackCodec) Decode(data []byte) (Command, error) {
	var cmd Command
	if err := msgpack.Unmarshal(data, &cmd); err != nil {
		return Command{}, game.ErrBadRequest.Wrap(err)
	}
	return cmd, nil
}

// protoCodec carries both directions as a serialized structpb.Struct.
type protoCodec struct{}

func (protoCodec) Name() string   { return "proto" }
func (protoCodec) FrameType() int { return websocket.BinaryMessage }

func (protoCodec) Encode(ev game.Event) ([]byte, error) {
	m, err := eventMap(ev)
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("event to struct: %w", err)
	}
	return proto.Marshal(st)
}

func (protoCodec) Decode(data []byte) (Command, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Command{}, game.ErrBadRequest.Wrap(err)
	}
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return Command{}, game.ErrBadRequest.Wrap(err)
	}
	return jsonCodec{}.Decode(raw)
}

func eventMap(ev game.Event) (map[string]any, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return m, nil
}
