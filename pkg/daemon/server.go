// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/burstfs/burstfs/pkg/logger"
	"github.com/burstfs/burstfs/pkg/rpcproto"
)

// Server wraps a gRPC server bound to a Context so the daemon's data-plane
// RPCs are reachable over the network.
type Server struct {
	ctx  *Context
	grpc *grpc.Server
}

// NewServer builds a Server, registering ctx as the rpcproto.DataServiceServer
// implementation. Every unary RPC is tagged with a request ID via
// unaryInterceptor before opts' interceptors, if any, run.
func NewServer(ctx *Context, opts ...grpc.ServerOption) *Server {
	ids := newRequestIDs()
	allOpts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(ids.unaryInterceptor)}, opts...)
	gs := grpc.NewServer(allOpts...)
	rpcproto.RegisterDataServiceServer(gs, ctx)
	return &Server{ctx: ctx, grpc: gs}
}

// Serve listens on addr and blocks serving RPCs until the listener errors
// or the server is stopped.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("daemon: listen %q: %w", addr, err)
	}
	logger.Info().Str("addr", addr).Msg("data server listening")
	return s.grpc.Serve(lis)
}

// GracefulStop drains in-flight RPCs before returning.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Stop terminates the server immediately.
func (s *Server) Stop() {
	s.grpc.Stop()
}

var _ rpcproto.DataServiceServer = (*Context)(nil)
