package logout

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

type TokenRevoker interface {
	Logout(ctx context.Context, caller *models.Caller) error
}

func New(log *slog.Logger, revoker TokenRevoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := revoker.Logout(r.Context(), authn.CallerFrom(r.Context())); err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OK("Successfully logged out"))
	}
}
