package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	sl "library_api/internal/lib/logger/sl"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	Status string `json:"status"`
}

// New reports 200 when every dependency answers, 503 otherwise.
func New(log *slog.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health.New"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				log.Warn("dependency is down", slog.String("op", op), slog.String("dependency", name), sl.Err(err))

				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, Response{Status: "unavailable"})

				return
			}
		}

		render.JSON(w, r, Response{Status: "ok"})
	}
}
