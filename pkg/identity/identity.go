// Package identity extracts the authenticated actor from incoming requests.
// Authentication itself happens upstream (the gateway issues and verifies
// credentials); the services trust the forwarded identity headers.
package identity

import (
	"context"
	"net/http"

	"mymentor/pkg/logger"
)

const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"

	RoleTutor   = "tutor"
	RoleStudent = "student"
)

type contextKey string

const actorKey contextKey = "actor"

type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsTutor() bool {
	return a.Role == RoleTutor
}

func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}

// FromContext returns the actor attached by the Authenticate middleware.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Authenticate rejects requests without identity headers and attaches the
// actor to the request context.
func Authenticate(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := r.Header.Get(HeaderActorID)
			role := r.Header.Get(HeaderActorRole)

			if actorID == "" || (role != RoleTutor && role != RoleStudent) {
				log.Warn("Request rejected: missing or invalid identity headers",
					"path", r.URL.Path,
					"method", r.Method,
					"role", role,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Missing or invalid identity"}`))
				return
			}

			ctx := WithActor(r.Context(), Actor{ID: actorID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
