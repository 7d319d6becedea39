// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/burstfs/burstfs/pkg/rpcproto"
)

// Truncate fans a truncate call out to every daemon in the placement
// universe, since a shorter file may drop chunks owned by any of them
// (§4.7). The call fails with the first error any daemon returns; the
// other daemons' truncates are not cancelled and run to completion.
func (d *Dispatcher) Truncate(ctx context.Context, path string, length uint64, hostIDs []uint32) error {
	var g errgroup.Group
	for _, id := range hostIDs {
		daemonID := id
		g.Go(func() error {
			cli, err := d.client(ctx, daemonID)
			if err != nil {
				return err
			}
			return d.withRetry(ctx, daemonID, func(callCtx context.Context) error {
				resp, cerr := cli.Truncate(callCtx, &rpcproto.TruncateRequest{Path: path, Length: length}, rpcproto.CallOption())
				if cerr != nil {
					return cerr
				}
				if resp.Err != 0 {
					return errnoError(resp.Err)
				}
				return nil
			})
		})
	}
	return g.Wait()
}

// ChunkStat aggregates chunk_stat across every daemon in hostIDs, summing
// space totals since each daemon reports only its own local filesystem.
func (d *Dispatcher) ChunkStat(ctx context.Context, hostIDs []uint32) (chunkSize, chunkTotal, chunkFree uint64, err error) {
	type stat struct{ total, free, size uint64 }
	results := make([]stat, len(hostIDs))

	var g errgroup.Group
	for i, id := range hostIDs {
		i, daemonID := i, id
		g.Go(func() error {
			cli, cerr := d.client(ctx, daemonID)
			if cerr != nil {
				return cerr
			}
			var resp *rpcproto.ChunkStatResponse
			rerr := d.withRetry(ctx, daemonID, func(callCtx context.Context) error {
				r, e := cli.ChunkStat(callCtx, &rpcproto.ChunkStatRequest{}, rpcproto.CallOption())
				if e != nil {
					return e
				}
				if r.Err != 0 {
					return errnoError(r.Err)
				}
				resp = r
				return nil
			})
			if rerr != nil {
				return rerr
			}
			results[i] = stat{total: resp.ChunkTotal, free: resp.ChunkFree, size: resp.ChunkSize}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, 0, 0, err
	}

	for _, r := range results {
		chunkTotal += r.total
		chunkFree += r.free
		chunkSize = r.size
	}
	return chunkSize, chunkTotal, chunkFree, nil
}
