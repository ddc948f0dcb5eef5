// Package authn resolves bearer tokens into a request-scoped caller.
package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"library_api/internal/auth"
	"library_api/internal/authz"
	resp "library_api/internal/lib/api/response"
	"library_api/internal/models"
)

type ctxKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, presented string) (*models.Caller, error)
}

func WithCaller(ctx context.Context, c *models.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerFrom returns the authenticated caller or nil.
func CallerFrom(ctx context.Context) *models.Caller {
	c, _ := ctx.Value(ctxKey{}).(*models.Caller)

	return c
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// Authenticate требует валидный bearer токен и кладет Caller в контекст запроса.
func Authenticate(log *slog.Logger, a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.Authenticate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			caller, err := a.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, resp.Error("Unauthenticated."))

					return
				}

				resp.WriteError(w, r, log, err)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireVerified rejects callers whose email is not verified.
func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := CallerFrom(r.Context())
		if caller == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthenticated."))

			return
		}

		if !caller.User.IsVerified() {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.Error("Your email address is not verified."))

			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole guards a route group with an action from the decision table.
func RequireRole(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFrom(r.Context())
			if caller == nil || !authz.Allowed(authz.SubjectOf(caller.User), action, nil) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Unauthorized"))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
