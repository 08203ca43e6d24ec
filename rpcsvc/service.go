// Package rpcsvc implements the Switchroom gRPC service: request
// validation, envelope stamping, bloom-sketch predicate construction, and
// status-code mapping over the storage engine.
package rpcsvc

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/umpyre-code/switchroom/bloomsketch"
	"github.com/umpyre-code/switchroom/envelope"
	"github.com/umpyre-code/switchroom/metrics"
	"github.com/umpyre-code/switchroom/rpcwire"
	"github.com/umpyre-code/switchroom/storage"
)

// Service implements rpcwire.SwitchroomServer against a storage.Engine.
type Service struct {
	engine *storage.Engine
	log    *zap.Logger
}

// New builds a Service backed by engine.
func New(engine *storage.Engine, log *zap.Logger) *Service {
	return &Service{engine: engine, log: log}
}

// SendMessage validates, stamps, and inserts env, returning the
// server-stamped copy. Bad arguments map to INVALID_ARGUMENT; so does a
// storage failure, per spec.md §9's documented historical mapping.
func (s *Service) SendMessage(ctx context.Context, req *envelope.Message) (*envelope.Message, error) {
	metrics.SendMessageCalled.Inc()

	if req.From == "" || req.To == "" {
		return nil, status.Error(codes.InvalidArgument, "from and to must both be non-empty")
	}

	stamped := envelope.Stamp(*req)
	inserted, err := s.engine.Insert(stamped)
	if err != nil {
		s.log.Error("send_message: insert failed", zap.Error(err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &inserted, nil
}

// GetMessages returns every message addressed to or from req.ClientID not
// suppressed by req.Sketch.
func (s *Service) GetMessages(ctx context.Context, req *rpcwire.GetMessagesRequest) (*rpcwire.GetMessagesResponse, error) {
	metrics.GetMessagesCalled.Inc()

	predicate := func(hash [envelope.HashSize]byte) bool { return true }
	if len(req.Sketch) > 0 {
		salt := saltToUint32(req.Salt)
		filter, err := bloomsketch.DecodeBase64(string(req.Sketch), salt)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode sketch: %v", err)
		}
		predicate = func(hash [envelope.HashSize]byte) bool {
			return !filter.Test(hashToBase64(hash))
		}
	}

	onDecodeFailure := func() { metrics.MessageDecodeFailure.Inc() }
	messages, err := s.engine.GetMessagesFor(req.ClientID, predicate, onDecodeFailure)
	if err != nil {
		s.log.Error("get_messages: scan failed", zap.Error(err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &rpcwire.GetMessagesResponse{Messages: messages}, nil
}

// Check is a liveness probe; it always reports Serving.
func (s *Service) Check(ctx context.Context, req *rpcwire.CheckRequest) (*rpcwire.CheckResponse, error) {
	return &rpcwire.CheckResponse{Status: rpcwire.ServingStatusServing}, nil
}

func hashToBase64(hash [envelope.HashSize]byte) string {
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// saltToUint32 takes the low 32 bits of an at-most-4-byte salt, per
// spec.md §6.
func saltToUint32(salt []byte) uint32 {
	var buf [4]byte
	n := len(salt)
	if n > 4 {
		n = 4
	}
	copy(buf[4-n:], salt[len(salt)-n:])
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
}
