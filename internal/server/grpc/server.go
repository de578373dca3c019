// Package grpc exposes the file registry to operators over gRPC. The
// service is described by hand with protobuf well-known types.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/logging"
	pb "github.com/dmitrijs2005/filekeeper/internal/proto"
	"github.com/dmitrijs2005/filekeeper/internal/server/access"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/registry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Authorizer interface {
	Evaluate(ctx context.Context, header string, tier access.Tier) access.Decision
}

type FileRegistry interface {
	GetByID(ctx context.Context, id int64) (*models.StoredFile, error)
	List(ctx context.Context) ([]*models.StoredFile, error)
}

type Sweeper interface {
	Sweep(ctx context.Context, retention time.Duration) (*registry.SweepResult, error)
}

type GRPCServer struct {
	address        string
	gate           Authorizer
	files          FileRegistry
	sweeper        Sweeper
	requestTimeout time.Duration
	logger         logging.Logger
	health         *health.Server
}

func NewGRPCServer(address string, l logging.Logger, gate Authorizer, files FileRegistry, sweeper Sweeper, requestTimeout time.Duration) *GRPCServer {
	return &GRPCServer{
		address:        address,
		gate:           gate,
		files:          files,
		sweeper:        sweeper,
		requestTimeout: requestTimeout,
		logger:         l.With("module", "grpc_server"),
		health:         health.NewServer(),
	}
}

// newServer builds the grpc.Server with the admin and health services.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.timeoutInterceptor, s.accessInterceptor))

	pb.RegisterFileAdminServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
