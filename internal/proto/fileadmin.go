// Package proto describes the FileKeeper admin gRPC service by hand, over
// protobuf well-known types, so that neither side needs generated code.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName        = "filekeeper.v1.FileAdmin"
	GetFileMethod      = "/" + ServiceName + "/GetFile"
	ListFilesMethod    = "/" + ServiceName + "/ListFiles"
	SweepOrphansMethod = "/" + ServiceName + "/SweepOrphans"
)

type FileAdminServer interface {
	GetFile(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListFiles(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// SweepOrphans takes the retention window in seconds.
	SweepOrphans(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
}

var FileAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FileAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetFile", Handler: getFileHandler},
		{MethodName: "ListFiles", Handler: listFilesHandler},
		{MethodName: "SweepOrphans", Handler: sweepOrphansHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "filekeeper/v1/file_admin.proto",
}

func RegisterFileAdminServer(s grpc.ServiceRegistrar, srv FileAdminServer) {
	s.RegisterService(&FileAdminServiceDesc, srv)
}

func getFileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FileAdminServer).GetFile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetFileMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FileAdminServer).GetFile(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func listFilesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FileAdminServer).ListFiles(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListFilesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FileAdminServer).ListFiles(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func sweepOrphansHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FileAdminServer).SweepOrphans(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SweepOrphansMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FileAdminServer).SweepOrphans(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// FileAdminClient calls the admin service over any client connection.
type FileAdminClient struct {
	cc grpc.ClientConnInterface
}

func NewFileAdminClient(cc grpc.ClientConnInterface) *FileAdminClient {
	return &FileAdminClient{cc: cc}
}

func (c *FileAdminClient) GetFile(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetFileMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FileAdminClient) ListFiles(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListFilesMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FileAdminClient) SweepOrphans(ctx context.Context, retentionSeconds int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SweepOrphansMethod, wrapperspb.Int64(retentionSeconds), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
