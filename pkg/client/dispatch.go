// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/burstfs/burstfs/pkg/chunkid"
	"github.com/burstfs/burstfs/pkg/errno"
	grpcpool "github.com/burstfs/burstfs/pkg/grpc/pool"
	"github.com/burstfs/burstfs/pkg/logger"
	"github.com/burstfs/burstfs/pkg/placement"
	"github.com/burstfs/burstfs/pkg/rpcproto"
	"github.com/burstfs/burstfs/pkg/utils"
	"github.com/burstfs/burstfs/pkg/wbitset"
)

// Dispatcher is the client-side data path (C5): it buckets a call's chunk
// range by owning daemon, builds one RPC per daemon, and fans the RPCs out
// concurrently.
type Dispatcher struct {
	placer    placement.Placer
	dir       *Directory
	pool      *grpcpool.Pool[rpcproto.DataServiceClient]
	chunkSize uint64
	tries     int
	timeout   time.Duration
	loopback  map[uint32]rpcproto.DataServiceClient
}

// NewDispatcher builds a Dispatcher. tries is the number of attempts per
// destination RPC (§6's rpc_tries); timeout bounds each individual attempt.
// certFile/keyFile/caFile configure the dial credentials the same way the
// daemon's cert_file/key_file flags configure its server side; all three
// empty means every dial is plaintext.
func NewDispatcher(placer placement.Placer, dir *Directory, chunkSize uint64, tries int, timeout time.Duration, certFile, keyFile, caFile string) (*Dispatcher, error) {
	factory := func(cc grpc.ClientConnInterface) rpcproto.DataServiceClient { return rpcproto.NewDataServiceClient(cc) }

	var poolOpts []grpcpool.Option
	if certFile != "" || keyFile != "" || caFile != "" {
		dialOpt, err := utils.GetServerDialOption(certFile, keyFile, caFile)
		if err != nil {
			return nil, fmt.Errorf("client: loading TLS dial credentials: %w", err)
		}
		poolOpts = append(poolOpts, grpcpool.WithDialOpts(dialOpt))
	}

	p := grpcpool.NewPool[rpcproto.DataServiceClient](factory, poolOpts...)
	return &Dispatcher{
		placer:    placer,
		dir:       dir,
		pool:      p,
		chunkSize: chunkSize,
		tries:     tries,
		timeout:   timeout,
	}, nil
}

// Close releases every pooled connection.
func (d *Dispatcher) Close() error {
	return d.pool.Close()
}

// UseLoopback routes every RPC addressed to daemonID through cli instead
// of dialing out, for the §4.10 same-process transport: a daemon
// collocated with the dispatcher skips the network entirely.
func (d *Dispatcher) UseLoopback(daemonID uint32, cli rpcproto.DataServiceClient) {
	if d.loopback == nil {
		d.loopback = make(map[uint32]rpcproto.DataServiceClient)
	}
	d.loopback[daemonID] = cli
}

// AllHostIDs returns every daemon ID in the placement universe, 0..HostSize-1.
func (d *Dispatcher) AllHostIDs() []uint32 {
	ids := make([]uint32, d.placer.HostSize())
	for i := range ids {
		ids[i] = uint32(i)
	}
	return ids
}

// bucketRange assigns every chunk ID in rng to its owning daemon and
// records, per daemon, a bitset marking which range-relative indices it
// owns, so a single RPC can carry both the global range and a compact
// membership test.
func (d *Dispatcher) bucketRange(path string, rng chunkid.Range) (map[uint32][]chunkid.ID, map[uint32]*wbitset.Bitset) {
	n := int(rng.Count())
	chunks := make(map[uint32][]chunkid.ID)
	bits := make(map[uint32]*wbitset.Bitset)

	for i, id := 0, rng.Start; id <= rng.End; i, id = i+1, id+1 {
		daemonID := d.placer.Place(path, id)
		chunks[daemonID] = append(chunks[daemonID], id)
		bs, ok := bits[daemonID]
		if !ok {
			bs = wbitset.New(n)
			bits[daemonID] = bs
		}
		bs.Set(i)
	}
	return chunks, bits
}

// chunkByteLen returns how many bytes of a [offset, offset+size) write or
// read land in chunk id, given id falls within rng.
func chunkByteLen(id chunkid.ID, rng chunkid.Range, offset, size, chunkSize uint64) uint64 {
	if rng.Start == rng.End {
		return size
	}
	if id == rng.Start {
		return chunkSize - offset%chunkSize
	}
	if id == rng.End {
		consumed := (chunkSize - offset%chunkSize) + uint64(id-rng.Start-1)*chunkSize
		return size - consumed
	}
	return chunkSize
}

// totalChunkSize sums chunkByteLen over ids, the per-target byte count the
// RPC's TotalChunkSize field carries.
func totalChunkSize(ids []chunkid.ID, rng chunkid.Range, offset, size, chunkSize uint64) uint64 {
	var total uint64
	for _, id := range ids {
		total += chunkByteLen(id, rng, offset, size, chunkSize)
	}
	return total
}

// client returns a connected DataServiceClient for daemonID, dialing
// lazily via the pool.
func (d *Dispatcher) client(ctx context.Context, daemonID uint32) (rpcproto.DataServiceClient, error) {
	if cli, ok := d.loopback[daemonID]; ok {
		return cli, nil
	}
	addr, err := d.dir.Address(daemonID)
	if err != nil {
		return nil, err
	}
	return d.pool.Get(ctx, addr)
}

// withRetry runs fn up to d.tries times, retrying only while isRetryable
// accepts the error: a transient errno, or an error that carries no errno
// at all.
func (d *Dispatcher) withRetry(ctx context.Context, daemonID uint32, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < d.tries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == d.tries-1 {
			break
		}
		backoff := utils.JitterUp(50*time.Millisecond<<uint(attempt), 0.3)
		logger.Ctx(ctx).Warn().Err(err).Uint32("daemon", daemonID).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("rpc retry")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("client: rpc to daemon %d failed after %d tries: %w", daemonID, d.tries, lastErr)
}

// isRetryable reports whether err is worth a retry attempt: a daemon
// response carrying a transient errno (EBUSY), or any error that didn't
// come from a daemon response at all (dial failures, deadline exceeded
// reaching the transport) since those are assumed transient until the
// retry budget says otherwise.
func isRetryable(err error) bool {
	var code syscall.Errno
	if errors.As(err, &code) {
		return errno.Retryable(int32(code))
	}
	return true
}
