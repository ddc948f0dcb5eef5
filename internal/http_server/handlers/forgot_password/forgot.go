package forgot

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	resp "library_api/internal/lib/api/response"
)

// Message is returned whether or not the email belongs to a user.
const Message = "If the email is registered, a password reset link has been sent."

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetRequester interface {
	ForgotPassword(ctx context.Context, email string) error
}

func New(log *slog.Logger, validate *validator.Validate, requester ResetRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.forgot.New"

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

		if err := requester.ForgotPassword(r.Context(), req.Email); err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OK(Message))
	}
}
