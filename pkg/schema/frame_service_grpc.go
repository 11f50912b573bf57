package schema

import (
	"context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
	structpb "google.golang.org/protobuf/types/known/structpb"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	FrameService_StoreFrame_FullMethodName = "/hikgrab.FrameService/StoreFrame"
	FrameService_LiveStream_FullMethodName = "/hikgrab.FrameService/LiveStream"
)

// FrameServiceClient stores encoded frames on a collector and follows its
// live feed. StoreFrame carries the JPEG bytes; naming and timing travel
// as request metadata (see NewFrameContext).
type FrameServiceClient interface {
	StoreFrame(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	LiveStream(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (FrameService_LiveStreamClient, error)
}

type frameServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFrameServiceClient(cc grpc.ClientConnInterface) FrameServiceClient {
	return &frameServiceClient{cc}
}

func (c *frameServiceClient) StoreFrame(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, FrameService_StoreFrame_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *frameServiceClient) LiveStream(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (FrameService_LiveStreamClient, error) {
	stream, err := c.cc.NewStream(ctx, &FrameService_ServiceDesc.Streams[0], FrameService_LiveStream_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &frameServiceLiveStreamClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type FrameService_LiveStreamClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type frameServiceLiveStreamClient struct {
	grpc.ClientStream
}

func (x *frameServiceLiveStreamClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// FrameServiceServer must embed UnimplementedFrameServiceServer.
type FrameServiceServer interface {
	StoreFrame(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	LiveStream(*emptypb.Empty, FrameService_LiveStreamServer) error
	mustEmbedUnimplementedFrameServiceServer()
}

type UnimplementedFrameServiceServer struct{}

func (UnimplementedFrameServiceServer) StoreFrame(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StoreFrame not implemented")
}

func (UnimplementedFrameServiceServer) LiveStream(*emptypb.Empty, FrameService_LiveStreamServer) error {
	return status.Errorf(codes.Unimplemented, "method LiveStream not implemented")
}

func (UnimplementedFrameServiceServer) mustEmbedUnimplementedFrameServiceServer() {}

func RegisterFrameServiceServer(s grpc.ServiceRegistrar, srv FrameServiceServer) {
	s.RegisterService(&FrameService_ServiceDesc, srv)
}

func _FrameService_StoreFrame_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FrameServiceServer).StoreFrame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FrameService_StoreFrame_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FrameServiceServer).StoreFrame(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _FrameService_LiveStream_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(FrameServiceServer).LiveStream(m, &frameServiceLiveStreamServer{stream})
}

type FrameService_LiveStreamServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type frameServiceLiveStreamServer struct {
	grpc.ServerStream
}

func (x *frameServiceLiveStreamServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

var FrameService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "hikgrab.FrameService",
	HandlerType: (*FrameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StoreFrame",
			Handler:    _FrameService_StoreFrame_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "LiveStream",
			Handler:       _FrameService_LiveStream_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "hikgrab/frame_service",
}
