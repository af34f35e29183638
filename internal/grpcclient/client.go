// Package grpcclient dials the recognition sidecar gRPC server.
package grpcclient

import (
	"github.com/GriffinCanCode/screenwatch/internal/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Dial creates a lazily connecting client for addr with keepalive, message
// size limits and trace propagation. Extra options are appended last.
func Dial(addr string, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                DefaultKeepaliveTime,
			Timeout:             DefaultKeepaliveTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(MaxMessageSize),
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
		),
		grpc.WithUnaryInterceptor(trace.UnaryClientInterceptor()),
	}
	return grpc.NewClient(addr, append(opts, extra...)...)
}
