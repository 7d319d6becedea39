// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package chunkstore

import "os"

// fdatasync falls back to a full Sync on non-Linux platforms.
func fdatasync(f *os.File) error {
	return f.Sync()
}

// fallocate is a no-op on platforms without a fallocate syscall; chunk
// files simply grow sparsely instead.
func fallocate(f *os.File, size int64) error {
	return nil
}
