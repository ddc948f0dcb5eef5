package verify

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"library_api/internal/apperr"
	resp "library_api/internal/lib/api/response"
)

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, userID int64, hash, signature string) (bool, error)
}

func New(log *slog.Logger, verifier EmailVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			resp.WriteError(w, r, log, apperr.NotFound("User not found"))

			return
		}

		already, err := verifier.VerifyEmail(r.Context(),
			userID,
			chi.URLParam(r, "hash"),
			r.URL.Query().Get("signature"),
		)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		if already {
			render.JSON(w, r, resp.OK("Email already verified"))

			return
		}

		log.Info("email verified successfully", slog.Int64("uid", userID))

		render.JSON(w, r, resp.OK("Email successfully verified"))
	}
}
