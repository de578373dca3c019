package grpc

import (
	"context"
	"math"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/server/access"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
	"github.com/dmitrijs2005/filekeeper/internal/server/registry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) GetFile(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if req.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id must be positive")
	}

	f, err := s.files.GetByID(ctx, req.GetValue())
	if err != nil {
		s.logFailure(ctx, "GetFile", err)
		return nil, toStatus(err, "file")
	}

	out, err := structpb.NewStruct(fileFields(f))
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) ListFiles(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	files, err := s.files.List(ctx)
	if err != nil {
		s.logFailure(ctx, "ListFiles", err)
		return nil, toStatus(err, "file")
	}

	items := make([]any, 0, len(files))
	for _, f := range files {
		items = append(items, fileFields(f))
	}

	out, err := structpb.NewList(items)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// maxRetentionSeconds is the longest window a time.Duration can hold.
const maxRetentionSeconds = math.MaxInt64 / int64(time.Second)

func (s *GRPCServer) SweepOrphans(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if req.GetValue() < 0 {
		return nil, status.Error(codes.InvalidArgument, "retention must not be negative")
	}
	if req.GetValue() > maxRetentionSeconds {
		return nil, status.Errorf(codes.InvalidArgument, "retention must not exceed %d seconds", maxRetentionSeconds)
	}
	retention := time.Duration(req.GetValue()) * time.Second

	if p, ok := access.PrincipalFromContext(ctx); ok {
		s.logger.Info(ctx, "sweep requested", "user", p.Login, "retention", retention.String())
	}

	res, err := s.sweeper.Sweep(ctx, retention)
	if err != nil {
		s.logFailure(ctx, "SweepOrphans", err)
		return nil, toStatus(err, "file")
	}

	out, err := structpb.NewStruct(sweepFields(res))
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) logFailure(ctx context.Context, method string, err error) {
	if status.Code(toStatus(err, "")) == codes.Internal {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
}

func fileFields(f *models.StoredFile) map[string]any {
	m := map[string]any{
		"id":          f.ID,
		"address":     f.Address,
		"state":       f.State().String(),
		"owner_table": nil,
		"owner_id":    nil,
		"created_at":  f.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":  f.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if f.Owner != nil {
		m["owner_table"] = f.Owner.Table
		m["owner_id"] = f.Owner.ID
	}
	return m
}

func sweepFields(res *registry.SweepResult) map[string]any {
	failures := make([]any, 0, len(res.StorageFailures))
	for _, a := range res.StorageFailures {
		failures = append(failures, a)
	}
	return map[string]any{
		"candidates":       res.Candidates,
		"deleted":          res.Deleted,
		"skipped":          res.Skipped,
		"record_failures":  res.RecordFailures,
		"storage_failures": failures,
	}
}
