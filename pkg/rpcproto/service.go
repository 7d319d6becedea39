// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package rpcproto

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name this package binds,
// following the same dotted-path convention protoc-gen-go-grpc would use
// for a "burstfs.data" package with a "DataService" service.
const ServiceName = "burstfs.data.DataService"

// DataServiceServer is the interface daemon handlers implement. It is the
// same shape protoc-gen-go-grpc emits for a unary-only service: one method
// per RPC, each taking a context and the request message.
type DataServiceServer interface {
	Write(ctx context.Context, req *WriteRequest) (*WriteResponse, error)
	Read(ctx context.Context, req *ReadRequest) (*ReadResponse, error)
	Truncate(ctx context.Context, req *TruncateRequest) (*TruncateResponse, error)
	ChunkStat(ctx context.Context, req *ChunkStatRequest) (*ChunkStatResponse, error)
}

// RegisterDataServiceServer registers srv against gs, mirroring the
// generated Register<Service>Server function.
func RegisterDataServiceServer(gs grpc.ServiceRegistrar, srv DataServiceServer) {
	gs.RegisterService(&DataService_ServiceDesc, srv)
}

func dataServiceWriteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(WriteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataServiceServer).Write(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Write"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataServiceServer).Write(ctx, req.(*WriteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func dataServiceReadHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ReadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataServiceServer).Read(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Read"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataServiceServer).Read(ctx, req.(*ReadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func dataServiceTruncateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TruncateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataServiceServer).Truncate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Truncate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataServiceServer).Truncate(ctx, req.(*TruncateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func dataServiceChunkStatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChunkStatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataServiceServer).ChunkStat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ChunkStat"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DataServiceServer).ChunkStat(ctx, req.(*ChunkStatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// DataService_ServiceDesc is the grpc.ServiceDesc protoc-gen-go-grpc would
// generate for the four unary data-path RPCs.
var DataService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DataServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Write", Handler: dataServiceWriteHandler},
		{MethodName: "Read", Handler: dataServiceReadHandler},
		{MethodName: "Truncate", Handler: dataServiceTruncateHandler},
		{MethodName: "ChunkStat", Handler: dataServiceChunkStatHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "burstfs/data.proto",
}

// DataServiceClient is the client-side stub interface, matching the shape
// protoc-gen-go-grpc emits.
type DataServiceClient interface {
	Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error)
	Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error)
	Truncate(ctx context.Context, in *TruncateRequest, opts ...grpc.CallOption) (*TruncateResponse, error)
	ChunkStat(ctx context.Context, in *ChunkStatRequest, opts ...grpc.CallOption) (*ChunkStatResponse, error)
}

type dataServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDataServiceClient wraps cc in a DataServiceClient, matching the
// generated New<Service>Client constructor.
func NewDataServiceClient(cc grpc.ClientConnInterface) DataServiceClient {
	return &dataServiceClient{cc: cc}
}

func (c *dataServiceClient) Write(ctx context.Context, in *WriteRequest, opts ...grpc.CallOption) (*WriteResponse, error) {
	out := new(WriteResponse)
	if err := c.cc.Invoke(ctx, ServiceName+"/Write", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dataServiceClient) Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error) {
	out := new(ReadResponse)
	if err := c.cc.Invoke(ctx, ServiceName+"/Read", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dataServiceClient) Truncate(ctx context.Context, in *TruncateRequest, opts ...grpc.CallOption) (*TruncateResponse, error) {
	out := new(TruncateResponse)
	if err := c.cc.Invoke(ctx, ServiceName+"/Truncate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dataServiceClient) ChunkStat(ctx context.Context, in *ChunkStatRequest, opts ...grpc.CallOption) (*ChunkStatResponse, error) {
	out := new(ChunkStatResponse)
	if err := c.cc.Invoke(ctx, ServiceName+"/ChunkStat", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallOption forces the gob codec's content-subtype on every RPC issued
// through this package's client, since the connection may be shared with
// other services that still expect protobuf.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}
