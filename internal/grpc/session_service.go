package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
)

// Full method names of auth.v1.SessionService
const (
	SessionServiceName                      = "auth.v1.SessionService"
	SessionService_ValidateAccessToken_Full = "/" + SessionServiceName + "/ValidateAccessToken"
	SessionService_ListActiveSessions_Full  = "/" + SessionServiceName + "/ListActiveSessions"
)

// SessionServiceServer lets internal services (Python workers, other Go
// services) verify access tokens and inspect token families. Messages are
// protobuf well-known types so no generated stubs are needed.
type SessionServiceServer interface {
	ValidateAccessToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ListActiveSessions(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.ListValue, error)
}

// SessionService_ServiceDesc is registered with grpc.Server.RegisterService
var SessionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ValidateAccessToken",
			Handler:    sessionServiceValidateAccessTokenHandler,
		},
		{
			MethodName: "ListActiveSessions",
			Handler:    sessionServiceListActiveSessionsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/session.proto",
}

// RegisterSessionServiceServer registers srv on s
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionService_ServiceDesc, srv)
}

func sessionServiceValidateAccessTokenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).ValidateAccessToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionService_ValidateAccessToken_Full,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionServiceServer).ValidateAccessToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func sessionServiceListActiveSessionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).ListActiveSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SessionService_ListActiveSessions_Full,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionServiceServer).ListActiveSessions(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionServer implements SessionServiceServer on top of the auth service
type SessionServer struct {
	auth   service.AuthService
	logger *slog.Logger
}

// NewSessionServer creates a new SessionService server instance
func NewSessionServer(auth service.AuthService, logger *slog.Logger) *SessionServer {
	return &SessionServer{
		auth:   auth,
		logger: logger,
	}
}

func (s *SessionServer) ValidateAccessToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	claims, err := s.auth.ValidateAccessToken(req.GetValue())
	if err != nil {
		s.logger.Debug("⚠️ [SessionService] Access token rejected", "error", err)
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	roles := make([]interface{}, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, r)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"user_id":        float64(claims.UserID),
		"roles":          roles,
		"email_verified": claims.EmailVerified,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode claims")
	}
	return out, nil
}

func (s *SessionServer) ListActiveSessions(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.ListValue, error) {
	if req.GetValue() == 0 {
		return nil, status.Error(codes.InvalidArgument, "user id required")
	}

	sessions, err := s.auth.ListActiveSessions(ctx, uint(req.GetValue()))
	if err != nil {
		s.logger.Error("❌ [SessionService] Failed to list sessions", "user_id", req.GetValue(), "error", err)
		return nil, toStatusError(err)
	}

	items := make([]interface{}, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, map[string]interface{}{
			"family_id":      sess.FamilyID.String(),
			"created_at":     sess.CreatedAt.Format(time.RFC3339Nano),
			"expires_at":     sess.ExpiresAt.Format(time.RFC3339Nano),
			"revoked":        sess.Revoked,
			"reason_revoked": sess.ReasonRevoked,
			"token_count":    float64(sess.TokenCount),
		})
	}

	out, err := structpb.NewList(items)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode sessions")
	}
	return out, nil
}

func toStatusError(err error) error {
	switch service.StatusOf(err) {
	case service.StatusUnauthorized:
		return status.Error(codes.Unauthenticated, "unauthorized")
	case service.StatusConflict:
		return status.Error(codes.AlreadyExists, "conflict")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
