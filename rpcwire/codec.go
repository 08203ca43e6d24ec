// Package rpcwire provides the gRPC transport layer for the switchroom
// service without a protoc-generated stub: a custom encoding.Codec built
// on Go's own encoding.BinaryMarshaler/BinaryUnmarshaler interfaces, and a
// hand-written grpc.ServiceDesc playing the role a protoc-gen-go-grpc run
// would normally emit.
package rpcwire

import (
	"encoding"
	"fmt"
)

// Name is the codec identifier negotiated over the wire in the grpc
// content-subtype, analogous to "proto" for the default codec.
const Name = "switchroom-binary"

// Codec adapts encoding.BinaryMarshaler/BinaryUnmarshaler payloads to
// grpc's encoding.Codec interface.
type Codec struct{}

func (Codec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("rpcwire: %T does not implement encoding.BinaryMarshaler", v)
	}
	return m.MarshalBinary()
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	u, ok := v.(encoding.BinaryUnmarshaler)
	if !ok {
		return fmt.Errorf("rpcwire: %T does not implement encoding.BinaryUnmarshaler", v)
	}
	return u.UnmarshalBinary(data)
}

func (Codec) Name() string { return Name }
