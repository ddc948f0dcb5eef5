package register

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	resp "library_api/internal/lib/api/response"
	"library_api/internal/models"
)

type Request struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type Data struct {
	User models.User `json:"user"`
}

type Response struct {
	resp.Response
	Data Data `json:"data"`
}

type UserRegistrar interface {
	RegisterNewUser(ctx context.Context, name, email, password string) (models.User, error)
}

func New(log *slog.Logger, validate *validator.Validate, registrar UserRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.WriteDecodeError(w, r, log, err)

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			resp.WriteValidationError(w, r, log, err)

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := registrar.RegisterNewUser(ctx, req.Name, req.Email, req.Password)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		log.Info("user registered", slog.Int64("uid", user.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK("Registration successful! Please check your email for verification."),
			Data:     Data{User: user},
		})
	}
}
