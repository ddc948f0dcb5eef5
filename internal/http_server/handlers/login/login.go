package login

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	resp "library_api/internal/lib/api/response"
	"library_api/internal/models"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Data struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Response struct {
	resp.Response
	Data Data `json:"data"`
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, models.User, error)
}

func New(log *slog.Logger, validate *validator.Validate, authenticator Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		token, user, err := authenticator.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		log.Info("User logged in successfully", slog.Int64("uid", user.ID))

		render.JSON(w, r, Response{
			Response: resp.OK("Login successful"),
			Data:     Data{Token: token, User: user},
		})
	}
}
