// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/burstfs/burstfs/pkg/chunkid"
	"github.com/burstfs/burstfs/pkg/rpcproto"
)

// Write implements §4.4's client half: it scatters buf across every daemon
// that owns a chunk in [offset, offset+len(buf)), sends one RPC per
// daemon concurrently, and returns the total bytes the daemons report
// having written.
func (d *Dispatcher) Write(ctx context.Context, path string, buf []byte, offset uint64) (int64, error) {
	size := uint64(len(buf))
	if size == 0 {
		return 0, nil
	}

	rng := chunkid.SpanFor(offset, size, d.chunkSize)
	chunks, bits := d.bucketRange(path, rng)

	var g errgroup.Group
	var mu sync.Mutex
	var total uint64

	for daemonID, ids := range chunks {
		daemonID, ids := daemonID, ids
		g.Go(func() error {
			req := &rpcproto.WriteRequest{
				Path:           path,
				Offset:         offset % d.chunkSize,
				ChunkStart:     uint64(rng.Start),
				ChunkEnd:       uint64(rng.End),
				ChunkN:         uint64(len(ids)),
				TotalChunkSize: totalChunkSize(ids, rng, offset, size, d.chunkSize),
				HostID:         daemonID,
				HostSize:       d.placer.HostSize(),
				Wbitset:        bits[daemonID].Compress(),
				BulkPayload:    buf,
			}

			cli, err := d.client(ctx, daemonID)
			if err != nil {
				return err
			}

			var resp *rpcproto.WriteResponse
			err = d.withRetry(ctx, daemonID, func(callCtx context.Context) error {
				r, cerr := cli.Write(callCtx, req, rpcproto.CallOption())
				if cerr != nil {
					return cerr
				}
				if r.Err != 0 {
					return errnoError(r.Err)
				}
				resp = r
				return nil
			})
			if err != nil {
				return err
			}
			mu.Lock()
			total += resp.IOSize
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int64(total), nil
}
