package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"atelier/internal/app"
	"atelier/internal/domain"
	"atelier/internal/engine/auth"
	"atelier/internal/repo"
)

// ActorHeader names the acting user. There is no credential behind it: the
// id is looked up in the users collection and trusted.
const ActorHeader = "X-Actor-ID"

type Principal struct {
	User        domain.User
	Affordances []string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func actorFromContext(ctx context.Context) (domain.User, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.User.ID != "" {
		return p.User, nil
	}
	return domain.User{}, newAPIError(http.StatusUnauthorized, "unauthorized", "actor required", nil)
}

// requireAffordance resolves the actor and checks its role. Roles gate the
// API the same way they gate actions in the UI.
func requireAffordance(ctx context.Context, affordance string) (domain.User, huma.StatusError) {
	actor, authErr := actorFromContext(ctx)
	if authErr != nil {
		return domain.User{}, authErr
	}
	if err := auth.Check(actor.Role, affordance); err != nil {
		return domain.User{}, handleError(err)
	}
	return actor, nil
}

// newActorMiddleware attaches the principal for every API request except
// health and login. A missing header acts as the first user.
func newActorMiddleware(basePath string, svc *app.Service, log *zap.Logger) func(http.Handler) http.Handler {
	open := map[string]bool{
		path.Join(basePath, "health"): true,
		path.Join(basePath, "login"):  true,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			if open[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			actorID := strings.TrimSpace(req.Header.Get(ActorHeader))
			user, err := svc.Actor(req.Context(), actorID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "unknown_actor", "unknown actor", map[string]any{"actor_id": actorID}))
					return
				}
				log.Error("actor lookup failed", zap.String("actor_id", actorID), zap.Error(err))
				respondStatusError(w, newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil))
				return
			}
			ctx := withPrincipal(req.Context(), Principal{User: user, Affordances: auth.Affordances(user.Role)})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
