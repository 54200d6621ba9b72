package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ExtractionServiceName = "invoice.v1.ExtractionService"

	extractMethod    = "/invoice.v1.ExtractionService/Extract"
	getJobMethod     = "/invoice.v1.ExtractionService/GetJob"
	listJobsMethod   = "/invoice.v1.ExtractionService/ListJobs"
	exportJobsMethod = "/invoice.v1.ExtractionService/ExportJobs"
)

// ExtractionServer is the server API for invoice.v1.ExtractionService.
// Messages are google.protobuf.Struct so the service needs no generated code.
type ExtractionServer interface {
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportJobs(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

type structHandler func(ExtractionServer, context.Context, *structpb.Struct) (any, error)

func unaryHandler(method string, call structHandler) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Extract",
			Handler: unaryHandler(extractMethod, func(s ExtractionServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.Extract(ctx, in)
			}),
		},
		{
			MethodName: "GetJob",
			Handler: unaryHandler(getJobMethod, func(s ExtractionServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.GetJob(ctx, in)
			}),
		},
		{
			MethodName: "ListJobs",
			Handler: unaryHandler(listJobsMethod, func(s ExtractionServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.ListJobs(ctx, in)
			}),
		},
		{
			MethodName: "ExportJobs",
			Handler: unaryHandler(exportJobsMethod, func(s ExtractionServer, ctx context.Context, in *structpb.Struct) (any, error) {
				return s.ExportJobs(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "invoice/v1/extraction.proto",
}

// ExtractionClient is the client API for invoice.v1.ExtractionService.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) Extract(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, extractMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getJobMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) ListJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listJobsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) ExportJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, exportJobsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
