// Package api exposes the bot over gRPC on the session's Unix socket.
//
// Requests and responses are google.protobuf.Struct values so the service
// needs no generated code; the service descriptor below is written by hand.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "wppbot.v1.BotService"

// Method names.
const (
	MethodGetStatus      = "GetStatus"
	MethodSendText       = "SendText"
	MethodListContacts   = "ListContacts"
	MethodUpdateContact  = "UpdateContact"
	MethodListGroups     = "ListGroups"
	MethodSyncDirectory  = "SyncDirectory"
	MethodListMessages   = "ListMessages"
	MethodSearchMessages = "SearchMessages"
	MethodListTemplates  = "ListTemplates"
	MethodSaveTemplate   = "SaveTemplate"
	MethodDeleteTemplate = "DeleteTemplate"
	MethodListConfig     = "ListConfig"
	MethodSetConfig      = "SetConfig"
	MethodWatchEvents    = "WatchEvents"
)

// BotServiceServer is the server side of wppbot.v1.BotService.
type BotServiceServer interface {
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListContacts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateContact(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListGroups(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncDirectory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTemplates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTemplate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetConfig(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchEvents(*structpb.Struct, EventStream) error
}

// EventStream is the server side of a WatchEvents call.
type EventStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

type unaryCall func(BotServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BotServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BotServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

type eventStream struct {
	grpc.ServerStream
}

func (s *eventStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

func watchEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BotServiceServer).WatchEvents(in, &eventStream{stream})
}

// FullMethod returns the gRPC path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ServiceDesc describes wppbot.v1.BotService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGetStatus, BotServiceServer.GetStatus),
		unary(MethodSendText, BotServiceServer.SendText),
		unary(MethodListContacts, BotServiceServer.ListContacts),
		unary(MethodUpdateContact, BotServiceServer.UpdateContact),
		unary(MethodListGroups, BotServiceServer.ListGroups),
		unary(MethodSyncDirectory, BotServiceServer.SyncDirectory),
		unary(MethodListMessages, BotServiceServer.ListMessages),
		unary(MethodSearchMessages, BotServiceServer.SearchMessages),
		unary(MethodListTemplates, BotServiceServer.ListTemplates),
		unary(MethodSaveTemplate, BotServiceServer.SaveTemplate),
		unary(MethodDeleteTemplate, BotServiceServer.DeleteTemplate),
		unary(MethodListConfig, BotServiceServer.ListConfig),
		unary(MethodSetConfig, BotServiceServer.SetConfig),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatchEvents,
			Handler:       watchEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "wppbot/v1/bot.proto",
}

// RegisterBotServiceServer registers srv on s.
func RegisterBotServiceServer(s grpc.ServiceRegistrar, srv BotServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
