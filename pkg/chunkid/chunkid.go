// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunkid defines the chunk-index arithmetic shared by the chunk
// store, the placement function, and both sides of the data-path RPCs.
package chunkid

import "strings"

// ID is the zero-based index of a fixed-size chunk within a file's byte
// stream. Chunk k covers file bytes [k*size, (k+1)*size).
type ID uint64

// Range is an inclusive span of chunk IDs touched by a single client call.
type Range struct {
	Start ID
	End   ID
}

// Count returns the number of chunk IDs in the range, inclusive of both ends.
func (r Range) Count() uint64 {
	if r.End < r.Start {
		return 0
	}
	return uint64(r.End-r.Start) + 1
}

// Of returns the chunk ID covering the given byte offset for chunkSize bytes
// per chunk.
func Of(offset uint64, chunkSize uint64) ID {
	return ID(offset / chunkSize)
}

// SpanFor computes the inclusive chunk range covered by [offset, offset+size).
// size must be > 0; callers must special-case the zero-byte no-op described
// in the dispatcher before calling this.
func SpanFor(offset, size, chunkSize uint64) Range {
	start := Of(offset, chunkSize)
	end := Of(offset+size-1, chunkSize)
	return Range{Start: start, End: end}
}

// Mangle turns an absolute, slash-separated file path into the single-level
// directory name its chunks live under: the leading '/' is stripped and
// every remaining '/' becomes ':'.
func Mangle(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	return strings.ReplaceAll(trimmed, "/", ":")
}
