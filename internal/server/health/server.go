// Package health exposes the standard gRPC health service. Serving status
// follows the reachability of the record database.
package health

import (
	"context"
	"net"
	"time"

	"github.com/codevault/codevault/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// VaultService is the service name reported alongside the overall status.
const VaultService = "codevault.Vault"

const defaultProbeInterval = 10 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	address  string
	pinger   Pinger
	interval time.Duration
	logger   logging.Logger
	status   *health.Server
}

func NewServer(address string, pinger Pinger, logger logging.Logger) *Server {
	return &Server{
		address:  address,
		pinger:   pinger,
		interval: defaultProbeInterval,
		logger:   logger.With("module", "health_server"),
		status:   health.NewServer(),
	}
}

// Run serves health checks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.status)

	s.probe(ctx)
	go s.probeLoop(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping health server...")
		s.status.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting health server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}

func (s *Server) probeLoop(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.probe(ctx)
		}
	}
}

// probe pings the database and publishes the result.
func (s *Server) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, s.interval/2)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.PingContext(pctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn(ctx, "database ping failed", "error", err)
	}
	s.status.SetServingStatus("", st)
	s.status.SetServingStatus(VaultService, st)
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Debug(ctx, "health rpc failed", "method", info.FullMethod, "error", err)
	}
	return resp, err
}
