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

// Read implements §4.5's client half: it asks every daemon owning a chunk
// in [offset, offset+len(buf)) for its share, scatters each response into
// buf at the byte offsets it computed independently (matching the
// per-daemon packing the handler used when it built the response), and
// returns the total bytes served.
func (d *Dispatcher) Read(ctx context.Context, path string, buf []byte, offset uint64) (int64, error) {
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
			targetTotal := totalChunkSize(ids, rng, offset, size, d.chunkSize)
			req := &rpcproto.ReadRequest{
				Path:           path,
				Offset:         offset % d.chunkSize,
				ChunkStart:     uint64(rng.Start),
				ChunkEnd:       uint64(rng.End),
				ChunkN:         uint64(len(ids)),
				TotalChunkSize: targetTotal,
				HostID:         daemonID,
				HostSize:       d.placer.HostSize(),
				Wbitset:        bits[daemonID].Compress(),
			}

			cli, err := d.client(ctx, daemonID)
			if err != nil {
				return err
			}

			var resp *rpcproto.ReadResponse
			err = d.withRetry(ctx, daemonID, func(callCtx context.Context) error {
				r, cerr := cli.Read(callCtx, req, rpcproto.CallOption())
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
			if resp.Canceled {
				return nil
			}

			scatter(buf, resp.BulkPayload, ids, rng, offset, size, d.chunkSize)

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

// scatter copies a daemon's packed response payload into the caller's
// buffer at each chunk's origin offset, mirroring the local-offset packing
// the daemon used when it built payload.
func scatter(dst, payload []byte, ids []chunkid.ID, rng chunkid.Range, offset, size, chunkSize uint64) {
	var localOffset uint64
	for _, id := range ids {
		n := chunkByteLen(id, rng, offset, size, chunkSize)
		originOffset := originOffsetOf(id, rng, offset, chunkSize)

		end := localOffset + n
		if end > uint64(len(payload)) {
			end = uint64(len(payload))
		}
		chunk := payload[localOffset:end]

		dstEnd := originOffset + uint64(len(chunk))
		if dstEnd > uint64(len(dst)) {
			dstEnd = uint64(len(dst))
			chunk = chunk[:dstEnd-originOffset]
		}
		copy(dst[originOffset:dstEnd], chunk)

		localOffset += n
	}
}

// originOffsetOf returns id's byte offset relative to the start of the
// caller's [offset, offset+size) window.
func originOffsetOf(id chunkid.ID, rng chunkid.Range, offset, chunkSize uint64) uint64 {
	if id == rng.Start {
		return 0
	}
	return (chunkSize - offset%chunkSize) + uint64(id-rng.Start-1)*chunkSize
}
