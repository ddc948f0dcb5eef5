package resend

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "library_api/internal/lib/api/response"
	"library_api/internal/middleware/authn"
	"library_api/internal/models"
)

type VerificationSender interface {
	ResendVerification(ctx context.Context, caller *models.Caller) (bool, error)
}

func New(log *slog.Logger, sender VerificationSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resend.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sent, err := sender.ResendVerification(r.Context(), authn.CallerFrom(r.Context()))
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		if !sent {
			render.JSON(w, r, resp.OK("Email already verified"))

			return
		}

		log.Info("verification email resent")

		render.JSON(w, r, resp.OK("Verification link resent"))
	}
}
