// Package metrics defines the three Prometheus counters spec.md §6 names
// and the HTTP exporter bootstrap that serves them.
package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	SendMessageCalled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "send_message_called_total",
		Help: "Number of SendMessage RPCs handled.",
	})
	GetMessagesCalled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "get_messages_called_total",
		Help: "Number of GetMessages RPCs handled.",
	})
	MessageDecodeFailure = promauto.NewCounter(prometheus.CounterOpts{
		Name: "message_decode_failure_total",
		Help: "Number of chunk groups that failed to decode during a scan.",
	})
)

// Server serves the Prometheus text exposition format on its own listener,
// independent of the RPC server, matching spec.md §6's separate
// metrics.bind_to_address.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer builds a metrics HTTP server bound to addr. It does not start
// listening until Serve is called.
func NewServer(addr string, log *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: mux},
		log:        log,
	}
}

// Serve blocks, serving metrics until the listener fails or Shutdown is
// called.
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info("metrics server listening", zap.String("address", s.httpServer.Addr))
	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
