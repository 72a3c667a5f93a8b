// Package grpc implements the gRPC transport.
//
// The service is described by hand rather than generated from a .proto:
// messages travel as JSON through a codec registered under the "json"
// content-subtype, so any gRPC client that sets that subtype can call it
// with the same shapes the HTTP API uses.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/ordertaker/internal/message"
	"github.com/nadzzz/ordertaker/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ordertaker.v1.CallService"

// CallServer is the server API of the call service.
type CallServer interface {
	StartCall(context.Context, *message.StartRequest) (*message.TurnResult, error)
	SendTurn(context.Context, *message.Turn) (*message.TurnResult, error)
	SendDigits(context.Context, *message.DigitsRequest) (*message.TurnResult, error)
	GetOrder(context.Context, *message.CallRef) (*message.Order, error)
	EndCall(context.Context, *message.CallRef) (*message.Order, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CallServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartCall", CallServer.StartCall),
		unary("SendTurn", CallServer.SendTurn),
		unary("SendDigits", CallServer.SendDigits),
		unary("GetOrder", CallServer.GetOrder),
		unary("EndCall", CallServer.EndCall),
	},
	Metadata: "ordertaker/v1/call.proto",
}

func unary[Req, Resp any](name string, call func(CallServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(CallServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// service adapts a transport.Handler to CallServer.
type service struct {
	h transport.Handler
}

func (s *service) StartCall(ctx context.Context, req *message.StartRequest) (*message.TurnResult, error) {
	res, err := s.h.StartCall(ctx, req)
	return res, toStatus(err)
}

func (s *service) SendTurn(ctx context.Context, t *message.Turn) (*message.TurnResult, error) {
	if t.CallID == "" {
		return nil, status.Error(codes.InvalidArgument, "call_id is required")
	}
	res, err := s.h.HandleTurn(ctx, t.CallID, t)
	return res, toStatus(err)
}

func (s *service) SendDigits(ctx context.Context, req *message.DigitsRequest) (*message.TurnResult, error) {
	if req.CallID == "" {
		return nil, status.Error(codes.InvalidArgument, "call_id is required")
	}
	res, err := s.h.HandleDigits(ctx, req.CallID, req.Digits)
	return res, toStatus(err)
}

func (s *service) GetOrder(ctx context.Context, ref *message.CallRef) (*message.Order, error) {
	p, err := s.h.Order(ctx, ref.CallID)
	return p, toStatus(err)
}

func (s *service) EndCall(ctx context.Context, ref *message.CallRef) (*message.Order, error) {
	p, err := s.h.EndCall(ctx, ref.CallID)
	return p, toStatus(err)
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch transport.Classify(err) {
	case transport.ClassNotFound:
		code = codes.NotFound
	case transport.ClassInvalid:
		code = codes.InvalidArgument
	case transport.ClassConflict:
		code = codes.AlreadyExists
	case transport.ClassUnavailable:
		code = codes.Unavailable
	default:
		slog.Error("grpc request failed", "error", err)
	}
	return status.Error(code, err.Error())
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to h.
func (t *Transport) Listen(ctx context.Context, h transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, h)
}

// Serve runs the service on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, h transport.Handler) error {
	t.server = grpc.NewServer()
	t.server.RegisterService(&serviceDesc, &service{h: h})

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.server.GracefulStop()
	}()

	if err := t.server.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}
