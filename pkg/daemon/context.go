// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemon implements the per-node data-plane server: the write,
// read, truncate, and chunk_stat RPC handlers (C4) built on the chunk
// store (C1) and tasklet pool (C2).
package daemon

import (
	"github.com/burstfs/burstfs/pkg/chunkstore"
	"github.com/burstfs/burstfs/pkg/stats"
	"github.com/burstfs/burstfs/pkg/tasklet"
	"github.com/burstfs/burstfs/pkg/utils"
)

// Context is the explicit, non-singleton state every handler and tasklet
// needs: the chunk store, the tasklet pool, statistics, and this daemon's
// identity in the placement universe. §9 requires this be threaded
// through rather than reached for as an ambient global.
type Context struct {
	Store        *chunkstore.Store
	Pool         *tasklet.Pool
	Stats        *stats.Counters
	ChunkSize    uint64
	HostID       uint32
	HostSize     uint32
	MinFreeSpace *utils.FreeSpace
}

// New builds a daemon Context.
func New(store *chunkstore.Store, pool *tasklet.Pool, counters *stats.Counters, chunkSize uint64, hostID, hostSize uint32) *Context {
	return &Context{
		Store:     store,
		Pool:      pool,
		Stats:     counters,
		ChunkSize: chunkSize,
		HostID:    hostID,
		HostSize:  hostSize,
	}
}

// SetMinFreeSpace installs a write-admission threshold: once set, Write
// rejects new writes with ENOSPC whenever the chunk store's free space
// measured by ChunkStat drops below it. A nil threshold (the default)
// disables the check.
func (c *Context) SetMinFreeSpace(fs *utils.FreeSpace) {
	c.MinFreeSpace = fs
}
