package rpcwire

import (
	"context"

	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
)

// BoundedConcurrencyInterceptor admits at most n concurrent unary calls,
// blocking the rest on a weighted semaphore until a slot frees up. It is
// the server's stand-in for a fixed-size worker pool: gRPC already hands
// each call its own goroutine, so bounding concurrency only needs an
// admission gate, not a custom executor. n == 0 disables the limit.
func BoundedConcurrencyInterceptor(n uint) grpc.UnaryServerInterceptor {
	if n == 0 {
		return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			return handler(ctx, req)
		}
	}

	sem := semaphore.NewWeighted(int64(n))
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer sem.Release(1)
		return handler(ctx, req)
	}
}
