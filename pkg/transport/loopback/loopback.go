// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package loopback implements §4.10's same-process transport: a
// rpcproto.DataServiceClient that calls a *daemon.Context's handlers
// directly, with no gRPC dial and no (de)serialization. It exists for single-node deployments where the client
// and one of the daemons share a process, and for tests that want to
// drive the handler logic without a listening socket.
package loopback

import (
	"context"

	"google.golang.org/grpc"

	"github.com/burstfs/burstfs/pkg/daemon"
	"github.com/burstfs/burstfs/pkg/rpcproto"
)

// Client adapts a *daemon.Context to rpcproto.DataServiceClient, so a
// client.Dispatcher can address the local daemon the same way it
// addresses remote ones, just without the network hop.
type Client struct {
	ctx *daemon.Context
}

// New wraps ctx for in-process dispatch.
func New(ctx *daemon.Context) *Client {
	return &Client{ctx: ctx}
}

var _ rpcproto.DataServiceClient = (*Client)(nil)

func (c *Client) Write(ctx context.Context, in *rpcproto.WriteRequest, _ ...grpc.CallOption) (*rpcproto.WriteResponse, error) {
	return c.ctx.Write(ctx, in)
}

func (c *Client) Read(ctx context.Context, in *rpcproto.ReadRequest, _ ...grpc.CallOption) (*rpcproto.ReadResponse, error) {
	return c.ctx.Read(ctx, in)
}

func (c *Client) Truncate(ctx context.Context, in *rpcproto.TruncateRequest, _ ...grpc.CallOption) (*rpcproto.TruncateResponse, error) {
	return c.ctx.Truncate(ctx, in)
}

func (c *Client) ChunkStat(ctx context.Context, in *rpcproto.ChunkStatRequest, _ ...grpc.CallOption) (*rpcproto.ChunkStatResponse, error) {
	return c.ctx.ChunkStat(ctx, in)
}
