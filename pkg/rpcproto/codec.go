// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package rpcproto

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the subtype registered with google.golang.org/grpc's codec
// registry in place of protobuf's "proto". gRPC negotiates it via the
// content-subtype portion of the request's content-type header.
const CodecName = "gob"

// gobCodec implements encoding.Codec by round-tripping messages through
// encoding/gob instead of a generated protobuf marshaler, since no protoc
// toolchain is available to produce real .pb.go bindings for this
// repository's wire types. Every message type in this package is exported
// and gob-serializable, so this is a drop-in Marshal/Unmarshal pair from
// grpc-go's point of view.
type gobCodec struct{}

func (gobCodec) Name() string { return CodecName }

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("rpcproto: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("rpcproto: gob decode: %w", err)
	}
	return nil
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
