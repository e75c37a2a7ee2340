package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/foodbridge/api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type actorKey struct{}

// Authenticate resolves the caller from a Bearer token carrying sub and
// role claims, and stores the resulting actor in the request context. Core
// handlers never see an unauthenticated request.
func Authenticate(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		sub, _ := claims["sub"].(string)
		roleClaim, _ := claims["role"].(string)
		role := domain.Role(roleClaim)
		if sub == "" || !role.Valid() {
			writeMessage(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		actor := domain.Actor{ID: sub, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

// ActorFrom returns the authenticated actor stored by Authenticate.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// requireActor fetches the actor or ends the request. A missing actor
// means the handler was mounted without Authenticate, so answer 401 rather
// than panic.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
	}
	return actor, ok
}

func requireRole(w http.ResponseWriter, r *http.Request, role domain.Role) (domain.Actor, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return domain.Actor{}, false
	}
	if actor.Role != role {
		writeMessage(w, http.StatusForbidden, "forbidden")
		return domain.Actor{}, false
	}
	return actor, true
}
