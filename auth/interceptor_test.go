package auth

import (
	"civic-stream/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptor(t *testing.T) {
	tokens := NewTokens("relay-secret")
	info := &grpc.UnaryServerInfo{FullMethod: "/civicstream.relay.v1.Relay/Publish"}
	// The handler returns the context it received so the injected subject can be checked
	dummyHandler := func(ctx context.Context, _ any) (any, error) {
		return ctx, nil
	}

	t.Run("should fail when metadata is missing", func(t *testing.T) {
		req := require.New(t)
		_, err := UnaryInterceptor(tokens)(context.Background(), nil, info, dummyHandler)
		req.Equal(codes.Unauthenticated, status.Code(err))
	})

	t.Run("should fail with invalid token", func(t *testing.T) {
		req := require.New(t)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer invalid"))
		_, err := UnaryInterceptor(tokens)(ctx, nil, info, dummyHandler)
		req.Equal(codes.Unauthenticated, status.Code(err))
		req.Contains(err.Error(), "invalid or expired token")
	})

	t.Run("should refuse a user token", func(t *testing.T) {
		req := require.New(t)
		token, err := tokens.GenerateToken(domain.Subject{ID: "alice", Role: domain.RoleCitizen}, time.Hour)
		req.NoError(err)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
		_, err = UnaryInterceptor(tokens)(ctx, nil, info, dummyHandler)
		req.Equal(codes.PermissionDenied, status.Code(err))
	})

	t.Run("should succeed and inject the instance subject", func(t *testing.T) {
		req := require.New(t)
		token, err := tokens.GenerateToken(domain.Subject{ID: "instance-a", Role: domain.RoleService}, time.Hour)
		req.NoError(err)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))

		res, err := UnaryInterceptor(tokens)(ctx, nil, info, dummyHandler)
		req.NoError(err)
		req.Equal("instance-a", SubjectFrom(res.(context.Context)).ID)
	})
}

func TestBearerCredentials(t *testing.T) {
	req := require.New(t)
	md, err := BearerCredentials("tok").GetRequestMetadata(context.Background())
	req.NoError(err)
	req.Equal("Bearer tok", md["authorization"])
	req.False(BearerCredentials("tok").RequireTransportSecurity())
}
