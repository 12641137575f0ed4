package auth

import (
	"civic-stream/domain"
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const subjectKey contextKey = "subject"

// WithSubject injects the caller identity for downstream handlers.
func WithSubject(ctx context.Context, subject domain.Subject) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFrom returns the authenticated subject, or a zero subject for anonymous requests.
func SubjectFrom(ctx context.Context) domain.Subject {
	subject, _ := ctx.Value(subjectKey).(domain.Subject)
	return subject
}

// Middleware resolves the caller from a bearer token. Browsers' EventSource cannot set
// headers, so the access_token query parameter is accepted too.
// Requests without credentials pass through anonymous: each handler decides whether its
// resource needs a subject. An invalid token is always rejected.
func Middleware(tokens Tokens, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			subject, err := tokens.ValidateToken(raw)
			if err != nil {
				log.Warn("Authorization denied", "reason", "invalid_token", "path", r.URL.Path, "error", err)
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("access_token")
}
