// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"

	"github.com/burstfs/burstfs/pkg/bulk"
	"github.com/burstfs/burstfs/pkg/chunkid"
	"github.com/burstfs/burstfs/pkg/errno"
	"github.com/burstfs/burstfs/pkg/logger"
	"github.com/burstfs/burstfs/pkg/rpcproto"
	"github.com/burstfs/burstfs/pkg/tasklet"
	"github.com/burstfs/burstfs/pkg/utils"
	"github.com/burstfs/burstfs/pkg/wbitset"
)

// Write implements the write RPC state machine of §4.4: pull each matched
// chunk's bytes out of the client's registered buffer, hand each chunk to
// the tasklet pool for a non-blocking disk write, and join before
// responding.
func (c *Context) Write(ctx context.Context, req *rpcproto.WriteRequest) (*rpcproto.WriteResponse, error) {
	resp := &rpcproto.WriteResponse{Err: errno.EIO}

	if req.ChunkN == 0 {
		resp.Err = errno.OK
		return resp, nil
	}

	if c.MinFreeSpace != nil {
		if low, reason := c.lowOnSpace(); low {
			logger.Ctx(ctx).Warn().Str("path", req.Path).Str("reason", reason).Msg("write: rejected, low on disk space")
			resp.Err = errno.ENOSPC
			return resp, nil
		}
	}

	bulkSize := uint64(len(req.BulkPayload))
	clientHandle := bulk.Create(req.BulkPayload, bulk.ReadOnly)

	serverBuf := utils.GetBuffer(int(req.TotalChunkSize))
	defer utils.PutBuffer(serverBuf)
	serverHandle := bulk.Create(serverBuf, bulk.ReadWrite)
	defer serverHandle.Free()

	rangeLen := int(req.ChunkEnd-req.ChunkStart) + 1
	wb := wbitset.Decompress(req.Wbitset, rangeLen)

	transferSize := bulkSize
	if transferSize > c.ChunkSize {
		transferSize = c.ChunkSize
	}

	var tickets []*tasklet.Ticket
	chnkSizeLeftHost := req.TotalChunkSize
	chnkIdCurr := uint64(0)

	for chnkIdFile := req.ChunkStart; chnkIdFile <= req.ChunkEnd && chnkIdCurr < req.ChunkN; chnkIdFile++ {
		if !wb.Test(int(chnkIdFile - req.ChunkStart)) {
			continue
		}

		var originOffset, localOffset, xferSize, intraOffset uint64

		if chnkIdFile == req.ChunkStart && req.Offset > 0 {
			if req.Offset+bulkSize <= c.ChunkSize {
				xferSize = bulkSize
			} else {
				xferSize = c.ChunkSize - req.Offset
			}
			originOffset = 0
			localOffset = 0
			intraOffset = req.Offset
		} else {
			localOffset = req.TotalChunkSize - chnkSizeLeftHost
			if req.Offset > 0 {
				originOffset = (c.ChunkSize - req.Offset) + (chnkIdFile-req.ChunkStart-1)*c.ChunkSize
			} else {
				originOffset = (chnkIdFile - req.ChunkStart) * c.ChunkSize
			}
			if chnkIdCurr == req.ChunkN-1 {
				xferSize = chnkSizeLeftHost
			} else {
				xferSize = transferSize
			}
		}

		if err := bulk.Transfer(bulk.Pull, clientHandle, originOffset, serverHandle, localOffset, xferSize); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("path", req.Path).Uint64("chunk", chnkIdFile).Msg("write: pull bulk transfer failed")
			resp.Err = errno.EBUSY
			_, ioSize := tasklet.Join(ctx, tickets)
			resp.IOSize = ioSize
			return resp, nil
		}

		id := chunkid.ID(chnkIdFile)
		off, sz, intra := localOffset, xferSize, intraOffset
		t := c.Pool.Submit(ctx, tasklet.KindWrite, func(_ context.Context) (uint64, error) {
			n, werr := c.Store.WriteChunk(req.Path, id, serverBuf[off:off+sz], intra)
			if werr != nil {
				c.Stats.RecordError("write_chunk")
				return n, werr
			}
			c.Stats.RecordWrite(n)
			return n, nil
		}, nil)
		tickets = append(tickets, t)

		chnkSizeLeftHost -= xferSize
		chnkIdCurr++
	}

	if chnkSizeLeftHost != 0 {
		logger.Ctx(ctx).Warn().Str("path", req.Path).Uint64("left", chnkSizeLeftHost).Msg("write: chunk range walk left unassigned bytes")
	}

	errCode, ioSize := tasklet.Join(ctx, tickets)
	resp.Err = errCode
	resp.IOSize = ioSize
	return resp, nil
}

// Read implements the read RPC state machine of §4.5: each tasklet reads
// its chunk from disk into the server buffer, then immediately (without
// waiting for sibling tasklets) pushes the bytes it actually read into the
// response buffer, which naturally leaves holes and short EOF reads as the
// zero bytes they already are.
func (c *Context) Read(ctx context.Context, req *rpcproto.ReadRequest) (*rpcproto.ReadResponse, error) {
	resp := &rpcproto.ReadResponse{Err: errno.EIO}

	if req.ChunkN == 0 {
		resp.Err = errno.OK
		return resp, nil
	}

	// serverBuf must start zeroed: ReadChunk leaves a missing chunk or a
	// short read's unread tail untouched rather than zeroing it itself, so
	// a pooled (not zero-filled) buffer would leak a previous request's
	// bytes into a hole. Allocated directly rather than via GetBuffer.
	serverBuf := make([]byte, req.TotalChunkSize)
	serverHandle := bulk.Create(serverBuf, bulk.ReadOnly)
	defer serverHandle.Free()

	// respBuf has the same hole-zeroing requirement as serverBuf above.
	respBuf := make([]byte, req.TotalChunkSize)
	clientHandle := bulk.Create(respBuf, bulk.WriteOnly)

	rangeLen := int(req.ChunkEnd-req.ChunkStart) + 1
	wb := wbitset.Decompress(req.Wbitset, rangeLen)

	transferSize := req.TotalChunkSize
	if transferSize > c.ChunkSize {
		transferSize = c.ChunkSize
	}

	var tickets []*tasklet.Ticket
	chnkSizeLeftHost := req.TotalChunkSize
	chnkIdCurr := uint64(0)

	for chnkIdFile := req.ChunkStart; chnkIdFile <= req.ChunkEnd && chnkIdCurr < req.ChunkN; chnkIdFile++ {
		if !wb.Test(int(chnkIdFile - req.ChunkStart)) {
			continue
		}

		var localOffset, xferSize, intraOffset uint64

		if chnkIdFile == req.ChunkStart && req.Offset > 0 {
			if req.Offset+req.TotalChunkSize <= c.ChunkSize {
				xferSize = req.TotalChunkSize
			} else {
				xferSize = c.ChunkSize - req.Offset
			}
			localOffset = 0
			intraOffset = req.Offset
		} else {
			localOffset = req.TotalChunkSize - chnkSizeLeftHost
			if chnkIdCurr == req.ChunkN-1 {
				xferSize = chnkSizeLeftHost
			} else {
				xferSize = transferSize
			}
		}

		id := chunkid.ID(chnkIdFile)
		off, sz, intra := localOffset, xferSize, intraOffset
		t := c.Pool.Submit(ctx, tasklet.KindRead, func(_ context.Context) (uint64, error) {
			n, rerr := c.Store.ReadChunk(req.Path, id, serverBuf[off:off+sz], intra)
			if rerr != nil {
				c.Stats.RecordError("read_chunk")
				return n, rerr
			}
			c.Stats.RecordRead(n, n == 0)
			return n, nil
		}, func(ioSize uint64, terr error) {
			if terr != nil || ioSize == 0 {
				return
			}
			if perr := bulk.Transfer(bulk.Push, clientHandle, off, serverHandle, off, ioSize); perr != nil {
				logger.Ctx(ctx).Error().Err(perr).Str("path", req.Path).Uint64("chunk", uint64(id)).Msg("read: push bulk transfer failed")
			}
		})
		tickets = append(tickets, t)

		chnkSizeLeftHost -= xferSize
		chnkIdCurr++
	}

	if chnkSizeLeftHost == req.TotalChunkSize {
		resp.Err = errno.OK
		resp.Canceled = true
		return resp, nil
	}

	errCode, ioSize := tasklet.Join(ctx, tickets)
	resp.Err = errCode
	resp.IOSize = ioSize
	resp.BulkPayload = respBuf
	return resp, nil
}

// Truncate implements §4.7: remove every chunk that lies wholly past the
// new length, then shorten the chunk the new length ends inside if the
// length doesn't land on a chunk edge.
func (c *Context) Truncate(ctx context.Context, req *rpcproto.TruncateRequest) (*rpcproto.TruncateResponse, error) {
	chunkStart := chunkid.ID((req.Length + c.ChunkSize - 1) / c.ChunkSize)

	t := c.Pool.Submit(ctx, tasklet.KindTruncate, func(_ context.Context) (uint64, error) {
		if err := c.Store.TrimChunkSpace(req.Path, chunkStart); err != nil {
			return 0, err
		}
		if rem := req.Length % c.ChunkSize; rem != 0 && chunkStart > 0 {
			if err := c.Store.TruncateChunkFile(req.Path, chunkStart-1, rem); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}, nil)

	errCode, _ := tasklet.Join(ctx, []*tasklet.Ticket{t})
	return &rpcproto.TruncateResponse{Err: errCode}, nil
}

// ChunkStat implements the chunk_stat RPC (§4.2's chunk_stat operation
// exposed over the wire).
func (c *Context) ChunkStat(ctx context.Context, _ *rpcproto.ChunkStatRequest) (*rpcproto.ChunkStatResponse, error) {
	st, err := c.Store.ChunkStat()
	if err != nil {
		return &rpcproto.ChunkStatResponse{Err: errno.FromError(err)}, nil
	}
	return &rpcproto.ChunkStatResponse{
		Err:        errno.OK,
		ChunkSize:  st.ChunkSize,
		ChunkTotal: st.ChunkTotal,
		ChunkFree:  st.ChunkFree,
	}, nil
}

// lowOnSpace reports whether the chunk store's current free space,
// measured the same way ChunkStat reports it, falls below c.MinFreeSpace.
func (c *Context) lowOnSpace() (bool, string) {
	st, err := c.Store.ChunkStat()
	if err != nil {
		return false, ""
	}
	freeBytes := st.ChunkFree * st.ChunkSize
	var freePercent float32
	if st.ChunkTotal > 0 {
		freePercent = float32(st.ChunkFree) / float32(st.ChunkTotal) * 100
	}
	return c.MinFreeSpace.IsLow(freeBytes, freePercent)
}
