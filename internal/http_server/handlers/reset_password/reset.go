package reset

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	resp "library_api/internal/lib/api/response"
)

type Request struct {
	Token                string `json:"token" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type PasswordResetter interface {
	ResetPassword(ctx context.Context, email, token, password string) error
}

func New(log *slog.Logger, validate *validator.Validate, resetter PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reset.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.WriteDecodeError(w, r, log, err)

			return
		}

		if err := validate.Struct(req); err != nil {
			resp.WriteValidationError(w, r, log, err)

			return
		}

		if err := resetter.ResetPassword(r.Context(), req.Email, req.Token, req.Password); err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		log.Info("password reset")

		render.JSON(w, r, resp.OK("Your password has been reset."))
	}
}
