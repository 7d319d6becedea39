// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpcproto defines the wire messages for the data plane's four
// RPCs (write, read, truncate, chunk_stat) and a hand-written gRPC service
// binding for them. See DESIGN.md for why this binding is hand-written
// instead of protoc-generated.
package rpcproto

// WriteRequest is the write RPC's input, matching §3's RPC input shape.
// BulkPayload stands in for the client's single RDMA-registered buffer: it
// carries the entire user write (not just this daemon's share), and the
// handler pulls its share out at the origin offsets it computes itself,
// exactly as it would compute offsets into a real registered buffer. See
// package bulk for why a real single-sided RDMA handle isn't available
// here.
type WriteRequest struct {
	Path           string
	Offset         uint64
	ChunkStart     uint64
	ChunkEnd       uint64
	ChunkN         uint64
	TotalChunkSize uint64
	HostID         uint32
	HostSize       uint32
	Wbitset        []byte
	BulkPayload    []byte
}

// WriteResponse is the write RPC's output.
type WriteResponse struct {
	Err    int32
	IOSize uint64
}

// ReadRequest is the read RPC's input.
type ReadRequest struct {
	Path           string
	Offset         uint64
	ChunkStart     uint64
	ChunkEnd       uint64
	ChunkN         uint64
	TotalChunkSize uint64
	HostID         uint32
	HostSize       uint32
	Wbitset        []byte
}

// ReadResponse is the read RPC's output. BulkPayload carries the bytes
// this daemon read for its share of the range, packed contiguously in
// chunk order (local offsets, not origin offsets); the dispatcher
// recomputes the origin offsets itself to scatter these bytes into the
// caller's buffer, so the response need not repeat them. Canceled is set
// when the walk matched no chunks for this host (§4.5).
type ReadResponse struct {
	Err         int32
	IOSize      uint64
	BulkPayload []byte
	Canceled    bool
}

// TruncateRequest is the truncate RPC's input.
type TruncateRequest struct {
	Path   string
	Length uint64
}

// TruncateResponse is the truncate RPC's output.
type TruncateResponse struct {
	Err int32
}

// ChunkStatRequest is the chunk_stat RPC's input.
type ChunkStatRequest struct{}

// ChunkStatResponse is the chunk_stat RPC's output.
type ChunkStatResponse struct {
	Err        int32
	ChunkSize  uint64
	ChunkTotal uint64
	ChunkFree  uint64
}
