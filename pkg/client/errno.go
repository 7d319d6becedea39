// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package client

import "github.com/burstfs/burstfs/pkg/errno"

// errnoError converts a daemon's wire errno into a Go error, retaining the
// retry classification for withRetry to check as it unwinds.
func errnoError(code int32) error {
	return errno.ToError(code)
}
