package rpcwire

import (
	"context"

	"google.golang.org/grpc"

	"github.com/umpyre-code/switchroom/envelope"
)

// ServiceName is the gRPC service name switchroom registers under.
const ServiceName = "switchroom.Switchroom"

// SwitchroomServer is the set of RPCs spec.md §4.5 defines. An
// implementation is registered with a *grpc.Server via
// RegisterSwitchroomServer.
type SwitchroomServer interface {
	SendMessage(ctx context.Context, req *envelope.Message) (*envelope.Message, error)
	GetMessages(ctx context.Context, req *GetMessagesRequest) (*GetMessagesResponse, error)
	Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error)
}

// RegisterSwitchroomServer attaches srv to s under the hand-written
// ServiceDesc below, the role protoc-gen-go-grpc's generated
// RegisterXServer function normally plays.
func RegisterSwitchroomServer(s *grpc.Server, srv SwitchroomServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SwitchroomServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: sendMessageHandler},
		{MethodName: "GetMessages", Handler: getMessagesHandler},
		{MethodName: "Check", Handler: checkHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "switchroom.proto",
}

func sendMessageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(envelope.Message)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwitchroomServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SendMessage"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwitchroomServer).SendMessage(ctx, req.(*envelope.Message))
	}
	return interceptor(ctx, in, info, handler)
}

func getMessagesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetMessagesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwitchroomServer).GetMessages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetMessages"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwitchroomServer).GetMessages(ctx, req.(*GetMessagesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwitchroomServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Check"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwitchroomServer).Check(ctx, req.(*CheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SwitchroomClient is the client-side counterpart, the role
// protoc-gen-go-grpc's generated client stub normally plays.
type SwitchroomClient interface {
	SendMessage(ctx context.Context, req *envelope.Message, opts ...grpc.CallOption) (*envelope.Message, error)
	GetMessages(ctx context.Context, req *GetMessagesRequest, opts ...grpc.CallOption) (*GetMessagesResponse, error)
	Check(ctx context.Context, req *CheckRequest, opts ...grpc.CallOption) (*CheckResponse, error)
}

type switchroomClient struct {
	cc grpc.ClientConnInterface
}

// NewSwitchroomClient wraps an established connection for unary calls
// against the three methods of the service.
func NewSwitchroomClient(cc grpc.ClientConnInterface) SwitchroomClient {
	return &switchroomClient{cc: cc}
}

func (c *switchroomClient) SendMessage(ctx context.Context, req *envelope.Message, opts ...grpc.CallOption) (*envelope.Message, error) {
	out := new(envelope.Message)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/SendMessage", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *switchroomClient) GetMessages(ctx context.Context, req *GetMessagesRequest, opts ...grpc.CallOption) (*GetMessagesResponse, error) {
	out := new(GetMessagesResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetMessages", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *switchroomClient) Check(ctx context.Context, req *CheckRequest, opts ...grpc.CallOption) (*CheckResponse, error) {
	out := new(CheckResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Check", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
