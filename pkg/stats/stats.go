// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package stats implements the optional per-chunk and aggregate counters
// of C6. Counters are updated from tasklets and must therefore be
// lock-free or atomic, per §5's shared-resource rules.
package stats

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/burstfs/burstfs/pkg/debug"
	"github.com/burstfs/burstfs/pkg/logger"
)

var (
	chunksWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "burstfs",
		Subsystem: "data",
		Name:      "chunks_written_total",
		Help:      "Total number of chunk write tasklets completed",
	})
	chunksRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "burstfs",
		Subsystem: "data",
		Name:      "chunks_read_total",
		Help:      "Total number of chunk read tasklets completed",
	})
	bytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "burstfs",
		Subsystem: "data",
		Name:      "bytes_written_total",
		Help:      "Total bytes persisted by write tasklets",
	})
	bytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "burstfs",
		Subsystem: "data",
		Name:      "bytes_read_total",
		Help:      "Total bytes served by read tasklets",
	})
	chunkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "burstfs",
		Subsystem: "data",
		Name:      "chunk_errors_total",
		Help:      "Chunk I/O errors by operation",
	}, []string{"op"})
	holesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "burstfs",
		Subsystem: "data",
		Name:      "holes_read_total",
		Help:      "Number of chunk reads that hit a missing (sparse) chunk file",
	})
)

func init() {
	debug.Registry().MustRegister(chunksWritten, chunksRead, bytesWritten, bytesRead, chunkErrors, holesRead)
}

// Counters is a lock-free aggregate, held once per daemon process and
// threaded through the DaemonContext so tasklets can increment it without
// touching a singleton.
type Counters struct {
	writes      atomic.Uint64
	reads       atomic.Uint64
	writeBytes  atomic.Uint64
	readBytes   atomic.Uint64
	holes       atomic.Uint64
	enabled     bool
	sink        *redisSink
}

// New returns a Counters. When enabled is false, every method is a no-op
// beyond the atomic increment, so the cost of leaving statistics on is
// always paid but the cost of external reporting is opt-in.
func New(enabled bool) *Counters {
	return &Counters{enabled: enabled}
}

// WithRedisSink attaches a best-effort cross-daemon aggregation sink. A nil
// client disables the sink; failures to publish are logged, never
// propagated, since stats are explicitly non-critical (§2, "optional").
func (c *Counters) WithRedisSink(client *redis.Client, key string) *Counters {
	if client != nil {
		c.sink = &redisSink{client: client, key: key}
	}
	return c
}

// RecordWrite records one completed write tasklet.
func (c *Counters) RecordWrite(n uint64) {
	c.writes.Add(1)
	c.writeBytes.Add(n)
	if !c.enabled {
		return
	}
	chunksWritten.Inc()
	bytesWritten.Add(float64(n))
	c.publish(context.Background(), "write", n)
}

// RecordRead records one completed read tasklet. hole indicates the chunk
// file did not exist and the bytes returned are zero-filled.
func (c *Counters) RecordRead(n uint64, hole bool) {
	c.reads.Add(1)
	c.readBytes.Add(n)
	if hole {
		c.holes.Add(1)
	}
	if !c.enabled {
		return
	}
	chunksRead.Inc()
	bytesRead.Add(float64(n))
	if hole {
		holesRead.Inc()
	}
	c.publish(context.Background(), "read", n)
}

// RecordError records a chunk-store operation failure by op name
// ("write_chunk", "read_chunk", "truncate_chunk_file", ...).
func (c *Counters) RecordError(op string) {
	if !c.enabled {
		return
	}
	chunkErrors.WithLabelValues(op).Inc()
}

// Snapshot is a point-in-time read of the aggregate counters.
type Snapshot struct {
	Writes     uint64
	Reads      uint64
	WriteBytes uint64
	ReadBytes  uint64
	Holes      uint64
}

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Writes:     c.writes.Load(),
		Reads:      c.reads.Load(),
		WriteBytes: c.writeBytes.Load(),
		ReadBytes:  c.readBytes.Load(),
		Holes:      c.holes.Load(),
	}
}

func (c *Counters) publish(ctx context.Context, op string, n uint64) {
	if c.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := c.sink.client.HIncrBy(ctx, c.sink.key, op+"_bytes", int64(n)).Err(); err != nil {
		logger.Debug().Err(err).Msg("stats: redis sink publish failed")
	}
}

type redisSink struct {
	client *redis.Client
	key    string
}
