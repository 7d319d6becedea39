// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package chunkstore

import (
	"os"

	"golang.org/x/sys/unix"
)

// fdatasync syncs chunk file data to disk without flushing unnecessary
// metadata, used after WriteChunk when the caller asked for a durable
// write (§4.4's ingest phase completing only once bytes are persisted).
func fdatasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}

// fallocate preallocates a full chunk's worth of disk space up front, so a
// sequence of WriteChunk calls into the same chunk file doesn't fragment
// it one small extent at a time.
func fallocate(f *os.File, size int64) error {
	return unix.Fallocate(int(f.Fd()), 0, 0, size)
}
