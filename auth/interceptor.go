package auth

import (
	"civic-stream/domain"
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// serviceSubject extracts and checks the bearer token of an incoming relay call.
// Only engine instances (service role) may publish to or subscribe on the relay.
func serviceSubject(ctx context.Context, tokens Tokens) (domain.Subject, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.Subject{}, status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return domain.Subject{}, status.Error(codes.Unauthenticated, "authorization token is missing")
	}
	subject, err := tokens.ValidateToken(strings.TrimPrefix(values[0], "Bearer "))
	if err != nil {
		return domain.Subject{}, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	if subject.Role != domain.RoleService {
		return domain.Subject{}, status.Error(codes.PermissionDenied, "service role required")
	}
	return subject, nil
}

// UnaryInterceptor authenticates unary relay calls and injects the caller subject.
func UnaryInterceptor(tokens Tokens) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		subject, err := serviceSubject(ctx, tokens)
		if err != nil {
			return nil, err
		}
		return handler(WithSubject(ctx, subject), req)
	}
}

type subjectStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s subjectStream) Context() context.Context { return s.ctx }

// StreamInterceptor is UnaryInterceptor for server streams.
func StreamInterceptor(tokens Tokens) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		subject, err := serviceSubject(ss.Context(), tokens)
		if err != nil {
			return err
		}
		return handler(srv, subjectStream{ServerStream: ss, ctx: WithSubject(ss.Context(), subject)})
	}
}

// BearerCredentials attaches a static token to every outgoing call.
// The relay runs inside the private network, so transport security is not required.
type BearerCredentials string

func (c BearerCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(c)}, nil
}

func (c BearerCredentials) RequireTransportSecurity() bool { return false }
