// Package relay is the cross-instance broker of the realtime bus, exposed over gRPC.
//
// The service is small enough to be declared by hand with well-known wrapper types:
//
//	rpc Publish(google.protobuf.BytesValue) returns (google.protobuf.Empty)      // topic in "topic" metadata
//	rpc Subscribe(google.protobuf.StringValue) returns (stream google.protobuf.BytesValue)
package relay

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName                    = "civicstream.relay.v1.Relay"
	Relay_Publish_FullMethodName   = "/" + ServiceName + "/Publish"
	Relay_Subscribe_FullMethodName = "/" + ServiceName + "/Subscribe"

	topicMetadataKey = "topic"
)

// RelayServiceServer is implemented by Server.
type RelayServiceServer interface {
	Publish(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Subscribe(*wrapperspb.StringValue, grpc.ServerStream) error
}

func RegisterRelayServiceServer(s grpc.ServiceRegistrar, srv RelayServiceServer) {
	s.RegisterService(&relayServiceDesc, srv)
}

func publishHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayServiceServer).Publish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Relay_Publish_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RelayServiceServer).Publish(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(RelayServiceServer).Subscribe(in, stream)
}

var relayServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Publish", Handler: publishHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "relay.proto",
}
