package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultMaxRecvMsgSize  = 4 << 20
	defaultGracefulTimeout = 10 * time.Second
)

type Option func(*serverOptions)

type serverOptions struct {
	maxRecvMsgSize  int
	gracefulTimeout time.Duration
}

func WithMaxRecvMsgSize(size int) Option {
	return func(o *serverOptions) {
		if size > 0 {
			o.maxRecvMsgSize = size
		}
	}
}

func WithGracefulTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// Server wraps a grpc.Server with the health service and the standard
// interceptor chain.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	opts         serverOptions
	logger       *slog.Logger

	mu      sync.Mutex
	started bool
}

func NewServer(logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	o := serverOptions{maxRecvMsgSize: defaultMaxRecvMsgSize, gracefulTimeout: defaultGracefulTimeout}
	for _, fn := range opts {
		fn(&o)
	}

	gs := grpc.NewServer(
		grpc.MaxRecvMsgSize(o.maxRecvMsgSize),
		grpc.ChainUnaryInterceptor(
			recoveryUnaryInterceptor(logger),
			loggingUnaryInterceptor(logger),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{grpcServer: gs, healthServer: hs, opts: o, logger: logger}
}

func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl any) {
	s.grpcServer.RegisterService(desc, impl)
	s.healthServer.SetServingStatus(desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.logger.Info("grpc service registered", "service", desc.ServiceName)
}

// Serve blocks serving lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("grpc server starting", "address", lis.Addr().String())
	err := s.grpcServer.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop drains in-flight calls, forcing a stop after the graceful timeout.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("grpc server stopping")
	s.healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(ctx, s.opts.gracefulTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("grpc server stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("grpc graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
}
