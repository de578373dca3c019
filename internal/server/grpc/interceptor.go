package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	pb "github.com/dmitrijs2005/filekeeper/internal/proto"
	"github.com/dmitrijs2005/filekeeper/internal/server/access"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// methodTiers lists the guarded methods. Anything else, such as the health
// service, is served without a token.
var methodTiers = map[string]access.Tier{
	pb.GetFileMethod:      access.TierAuthenticated,
	pb.ListFilesMethod:    access.TierAuthenticated,
	pb.SweepOrphansMethod: access.TierAdmin,
}

func (s *GRPCServer) accessInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	tier, guarded := methodTiers[info.FullMethod]
	if !guarded {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	d := s.gate.Evaluate(ctx, header, tier)
	if err := d.Err(); err != nil {
		return nil, toStatus(err, "")
	}

	return handler(access.WithPrincipal(ctx, d.Principal), req)
}

func (s *GRPCServer) timeoutInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.requestTimeout <= 0 {
		return handler(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	return handler(ctx, req)
}

// toStatus maps domain errors to gRPC status codes. Causes stay on the
// server side.
func toStatus(err error, resource string) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, "insufficient permissions")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, resource+" not found")
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.AlreadyExists, resource+" already exists")
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrInvalidOwner):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrTimeout):
		return status.Error(codes.Unavailable, "request timed out")
	case errors.Is(err, common.ErrStorage):
		return status.Error(codes.Internal, "file storage failure")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
