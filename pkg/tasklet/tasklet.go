// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package tasklet implements the per-daemon cooperative execution pool that
// overlaps disk I/O with bulk transfer. It is a contract, not a mechanism:
// submission is non-blocking and cheap, tasks may complete in any order,
// and each task owns its own result slot so the pool never has to reach
// back into the handler that submitted it.
package tasklet

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/burstfs/burstfs/pkg/errno"
)

// Kind identifies the disk operation a task performs.
type Kind int

const (
	KindWrite Kind = iota
	KindRead
	KindTruncate
)

// Func is the work a tasklet performs once scheduled. It returns the
// number of bytes moved and an error, which the pool converts to errno at
// join time.
type Func func(ctx context.Context) (ioSize uint64, err error)

// OnComplete is an optional hook invoked the instant a single task
// finishes, before the pool's Join waits on any of its siblings. The read
// handler uses this to issue the per-chunk push bulk transfer described in
// §4.5 without waiting for the rest of the chunk range.
type OnComplete func(ioSize uint64, err error)

// Ticket is the handle returned by Submit. The submitter retrieves the
// task's result by calling Wait.
type Ticket struct {
	done chan struct{}
	io   uint64
	err  error
}

// Wait blocks until the task completes and returns its result, or returns
// ctx's error if ctx is done first. Wait may be called more than once;
// once the task has completed it always returns the same result.
func (t *Ticket) Wait(ctx context.Context) (uint64, error) {
	select {
	case <-t.done:
		return t.io, t.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Pool runs tasklets on a bounded worker set. The bound exists so that
// blocking positional read/write syscalls inside tasklets cannot starve the
// daemon's RPC progress engine; see §5's suspension-point discussion.
type Pool struct {
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	inflight atomic.Int64
}

// NewPool returns a Pool that runs at most concurrency tasklets at once.
func NewPool(concurrency int64) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pool{sem: semaphore.NewWeighted(concurrency)}
}

// Submit schedules fn to run, returning immediately with a Ticket. kind is
// not interpreted by the pool itself; it exists so callers can label tasks
// without the pool needing to know the chunk store's shape.
func (p *Pool) Submit(ctx context.Context, kind Kind, fn Func, onComplete OnComplete) *Ticket {
	t := &Ticket{done: make(chan struct{})}

	p.wg.Add(1)
	p.inflight.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight.Add(-1)

		if err := p.sem.Acquire(ctx, 1); err != nil {
			t.err = err
			if onComplete != nil {
				onComplete(0, err)
			}
			close(t.done)
			return
		}
		defer p.sem.Release(1)

		io, err := fn(ctx)
		t.io = io
		t.err = err

		if onComplete != nil {
			onComplete(io, err)
		}
		close(t.done)
	}()

	return t
}

// Inflight returns the number of tasklets currently submitted but not yet
// complete.
func (p *Pool) Inflight() int64 {
	return p.inflight.Load()
}

// Join waits for every ticket to complete and aggregates the result per
// §4.3's wait_for_tasks contract: err is 0 if all tasks succeeded, otherwise
// the errno of the first failure observed in ticket order; total is the sum
// of io sizes from tasks that succeeded.
func Join(ctx context.Context, tickets []*Ticket) (err int32, total uint64) {
	var firstErr error
	for _, t := range tickets {
		io, terr := t.Wait(ctx)
		if terr != nil {
			if firstErr == nil {
				firstErr = terr
			}
			continue
		}
		total += io
	}
	return errno.FromError(firstErr), total
}
