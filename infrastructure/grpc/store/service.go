// Package store shares the durable state of the engine between delivery instances:
// the event log, the dedup ledger and the presence table live in one Badger database
// owned by the relay process, and every instance reaches them over gRPC.
//
// Like the relay, the service is declared by hand. Each method carries a JSON document
// in a google.protobuf.BytesValue both ways:
//
//	rpc Append(BytesValue) returns (BytesValue)          // event.DomainEvent -> stored event
//	rpc Get(BytesValue) returns (BytesValue)
//	rpc GetSince(BytesValue) returns (BytesValue)        // optional index
//	rpc SequenceAt(BytesValue) returns (BytesValue)
//	rpc MarkProcessed(BytesValue) returns (BytesValue)
//	rpc GetStatus(BytesValue) returns (BytesValue)
//	rpc SavePresence(BytesValue) returns (BytesValue)
//	rpc DeletePresence(BytesValue) returns (BytesValue)
//	rpc LoadPresence(BytesValue) returns (BytesValue)
//	rpc PresenceOf(BytesValue) returns (BytesValue)
package store

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "civicstream.store.v1.Store"

const (
	methodAppend         = "Append"
	methodGet            = "Get"
	methodGetSince       = "GetSince"
	methodSequenceAt     = "SequenceAt"
	methodMarkProcessed  = "MarkProcessed"
	methodGetStatus      = "GetStatus"
	methodSavePresence   = "SavePresence"
	methodDeletePresence = "DeletePresence"
	methodLoadPresence   = "LoadPresence"
	methodPresenceOf     = "PresenceOf"
)

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type unary = func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)

// StoreServiceServer is implemented by Server.
type StoreServiceServer interface {
	Append(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Get(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetSince(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	SequenceAt(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	MarkProcessed(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetStatus(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	SavePresence(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	DeletePresence(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	LoadPresence(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	PresenceOf(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

func RegisterStoreServiceServer(s grpc.ServiceRegistrar, srv StoreServiceServer) {
	s.RegisterService(&storeServiceDesc, srv)
}

// unaryHandler adapts one method of StoreServiceServer to a grpc.MethodDesc handler.
func unaryHandler(method string, call func(StoreServiceServer) unary) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(wrapperspb.BytesValue)
			if err := dec(in); err != nil {
				return nil, err
			}
			fn := call(srv.(StoreServiceServer))
			if interceptor == nil {
				return fn(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(ctx, req.(*wrapperspb.BytesValue))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var storeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StoreServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(methodAppend, func(s StoreServiceServer) unary { return s.Append }),
		unaryHandler(methodGet, func(s StoreServiceServer) unary { return s.Get }),
		unaryHandler(methodGetSince, func(s StoreServiceServer) unary { return s.GetSince }),
		unaryHandler(methodSequenceAt, func(s StoreServiceServer) unary { return s.SequenceAt }),
		unaryHandler(methodMarkProcessed, func(s StoreServiceServer) unary { return s.MarkProcessed }),
		unaryHandler(methodGetStatus, func(s StoreServiceServer) unary { return s.GetStatus }),
		unaryHandler(methodSavePresence, func(s StoreServiceServer) unary { return s.SavePresence }),
		unaryHandler(methodDeletePresence, func(s StoreServiceServer) unary { return s.DeletePresence }),
		unaryHandler(methodLoadPresence, func(s StoreServiceServer) unary { return s.LoadPresence }),
		unaryHandler(methodPresenceOf, func(s StoreServiceServer) unary { return s.PresenceOf }),
	},
	Metadata: "store.proto",
}
