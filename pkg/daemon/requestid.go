// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/burstfs/burstfs/pkg/logger"
)

// requestIDs mints per-RPC correlation IDs: a process-lifetime uuid prefix
// shared by every request this daemon serves, plus a monotonic counter
// distinguishing requests within the process. The prefix makes IDs unique
// across daemon restarts without needing a coordinated ID allocator.
type requestIDs struct {
	prefix  string
	counter atomic.Uint64
}

func newRequestIDs() *requestIDs {
	return &requestIDs{prefix: uuid.New().String()[:8]}
}

func (r *requestIDs) next() string {
	return r.prefix + "-" + strconv.FormatUint(r.counter.Add(1), 10)
}

// unaryInterceptor tags every unary RPC with a request ID and attaches a
// logger carrying it to the handler's context, so every log line emitted
// while serving the call can be correlated back to it.
func (r *requestIDs) unaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	reqID := r.next()
	l := logger.Ctx(ctx).With().Str("request_id", reqID).Str("method", info.FullMethod).Logger()
	return handler(logger.WithLogger(ctx, &l), req)
}
