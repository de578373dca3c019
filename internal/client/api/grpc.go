package api

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	pb "github.com/dmitrijs2005/filekeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCClient talks to the file admin service. The token is read from the
// token func on every call, so a later login is picked up automatically.
type GRPCClient struct {
	conn  *grpc.ClientConn
	admin *pb.FileAdminClient
	token func() string
}

func NewGRPCClient(address string, token func() string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{token: token}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	c.admin = pb.NewFileAdminClient(conn)
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	token := c.token()
	if token == "" {
		return ErrNotLoggedIn
	}
	return fromStatus(invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...))
}

func (c *GRPCClient) GetFile(ctx context.Context, id int64) (*File, error) {
	out, err := c.admin.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	f := fileFromStruct(out)
	return &f, nil
}

func (c *GRPCClient) ListFiles(ctx context.Context) ([]File, error) {
	out, err := c.admin.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		if s := v.GetStructValue(); s != nil {
			files = append(files, fileFromStruct(s))
		}
	}
	return files, nil
}

func (c *GRPCClient) SweepOrphans(ctx context.Context, retention time.Duration) (*SweepResult, error) {
	out, err := c.admin.SweepOrphans(ctx, int64(retention/time.Second))
	if err != nil {
		return nil, err
	}

	m := out.AsMap()
	res := &SweepResult{
		Candidates:     int(number(m["candidates"])),
		Deleted:        int(number(m["deleted"])),
		Skipped:        int(number(m["skipped"])),
		RecordFailures: int(number(m["record_failures"])),
	}
	if list, ok := m["storage_failures"].([]any); ok {
		for _, a := range list {
			if s, ok := a.(string); ok {
				res.StorageFailures = append(res.StorageFailures, s)
			}
		}
	}
	return res, nil
}

func fileFromStruct(s *structpb.Struct) File {
	m := s.AsMap()

	f := File{
		ID:      int64(number(m["id"])),
		Address: text(m["address"]),
		State:   text(m["state"]),
	}
	if table, ok := m["owner_table"].(string); ok {
		f.Owner = &Owner{Table: table, ID: int64(number(m["owner_id"]))}
	}
	if ts, err := time.Parse(time.RFC3339, text(m["created_at"])); err == nil {
		f.CreatedAt = ts
	}
	return f
}

func number(v any) float64 {
	n, _ := v.(float64)
	return n
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = ErrUnauthorized
	case codes.PermissionDenied:
		sentinel = ErrForbidden
	case codes.NotFound:
		sentinel = ErrNotFound
	case codes.AlreadyExists:
		sentinel = ErrConflict
	case codes.InvalidArgument:
		sentinel = ErrBadRequest
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = ErrUnavailable
	default:
		return err
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
