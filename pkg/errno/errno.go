// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package errno converts between Go errors and the int32 errno values
// carried in RPC response fields, so that chunk-store and tasklet failures
// never leak a Go error string across the wire.
package errno

import (
	"errors"
	"io/fs"
	"syscall"
)

// Well-known values referenced directly by the spec's error-handling table.
const (
	OK      int32 = 0
	EIO     int32 = int32(syscall.EIO)
	EBUSY   int32 = int32(syscall.EBUSY)
	ENOSPC  int32 = int32(syscall.ENOSPC)
	ENOENT  int32 = int32(syscall.ENOENT)
	EEXIST  int32 = int32(syscall.EEXIST)
	EINVAL  int32 = int32(syscall.EINVAL)
	ECANCEL int32 = int32(syscall.ECANCELED)
)

// FromError maps a Go error observed on the server side to the errno value
// reported in an RPC response. A nil error maps to OK. Errors that don't
// wrap a syscall.Errno and aren't one of the sentinel fs errors fall back to
// EIO, matching the spec's "setup failure" kind.
func FromError(err error) int32 {
	if err == nil {
		return OK
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int32(errno)
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ENOENT
	case errors.Is(err, fs.ErrExist):
		return EEXIST
	case errors.Is(err, fs.ErrPermission):
		return int32(syscall.EACCES)
	}

	return EIO
}

// ToError converts an errno value read off the wire back into a Go error
// for callers (the client dispatcher) that want to use errors.Is against
// syscall.Errno. Zero maps to nil.
func ToError(code int32) error {
	if code == OK {
		return nil
	}
	return syscall.Errno(code)
}

// Retryable reports whether the client should retry the RPC attempt rather
// than surface the error immediately, per §7's transport-timeout row.
func Retryable(code int32) bool {
	return code == EBUSY
}
