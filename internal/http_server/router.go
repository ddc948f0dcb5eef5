// Package httpserver assembles the /v1 routes and their guards.
package httpserver

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"

	"library_api/internal/authz"
	bookhandlers "library_api/internal/http_server/handlers/books"
	forgot "library_api/internal/http_server/handlers/forgot_password"
	"library_api/internal/http_server/handlers/health"
	"library_api/internal/http_server/handlers/login"
	"library_api/internal/http_server/handlers/logout"
	"library_api/internal/http_server/handlers/register"
	resend "library_api/internal/http_server/handlers/resend_verification_email"
	reset "library_api/internal/http_server/handlers/reset_password"
	"library_api/internal/http_server/handlers/tokens"
	"library_api/internal/http_server/handlers/users"
	"library_api/internal/http_server/handlers/verify"
	"library_api/internal/middleware/authn"
	"library_api/internal/middleware/ratelimit"
)

// AuthService is everything the auth, user and token endpoints call.
type AuthService interface {
	authn.Authenticator
	register.UserRegistrar
	login.Authenticator
	logout.TokenRevoker
	verify.EmailVerifier
	resend.VerificationSender
	forgot.ResetRequester
	reset.PasswordResetter
	users.UserAdmin
	tokens.TokenManager
}

type Deps struct {
	Auth     AuthService
	Books    bookhandlers.BookService
	Health   map[string]health.Pinger
	Validate *validator.Validate
}

func NewRouter(log *slog.Logger, d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", health.New(log, d.Health))

	r.Route("/v1", func(r chi.Router) {
		r.With(ratelimit.Register()).Post("/register", register.New(log, d.Validate, d.Auth))
		r.With(ratelimit.Login()).Post("/login", login.New(log, d.Validate, d.Auth))
		r.With(ratelimit.ForgotPassword()).Post("/forgot-password", forgot.New(log, d.Validate, d.Auth))
		r.With(ratelimit.ResetPassword()).Post("/reset-password", reset.New(log, d.Validate, d.Auth))
		r.With(ratelimit.Verify()).Get("/email/verify/{id}/{hash}", verify.New(log, d.Auth))

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate(log, d.Auth))

			r.Post("/logout", logout.New(log, d.Auth))
			r.With(ratelimit.ResendVerificationEmail()).Post("/email/resend", resend.New(log, d.Auth))

			r.Group(func(r chi.Router) {
				r.Use(authn.RequireVerified)

				r.Route("/books", func(r chi.Router) {
					r.Get("/", bookhandlers.NewList(log, d.Books))
					r.Post("/", bookhandlers.NewCreate(log, d.Validate, d.Books))
					r.Get("/{id}", bookhandlers.NewGet(log, d.Books))
					r.Put("/{id}", bookhandlers.NewUpdate(log, d.Validate, d.Books))
					r.Delete("/{id}", bookhandlers.NewDelete(log, d.Books))
				})

				r.Route("/tokens", func(r chi.Router) {
					r.Get("/", tokens.NewList(log, d.Auth))
					r.Post("/", tokens.NewCreate(log, d.Validate, d.Auth))
					r.Delete("/", tokens.NewDeleteAll(log, d.Auth))
					r.Delete("/{id}", tokens.NewDelete(log, d.Auth))
				})

				r.Route("/users", func(r chi.Router) {
					r.Use(authn.RequireRole(authz.UserViewAny))

					r.Get("/", users.NewList(log, d.Auth))
					r.Put("/{id}/role", users.NewUpdateRole(log, d.Validate, d.Auth))
				})
			})
		})
	})

	return r
}
