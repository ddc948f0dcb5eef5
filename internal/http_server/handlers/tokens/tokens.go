package tokens

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"library_api/internal/apperr"
	resp "library_api/internal/lib/api/response"
	"library_api/internal/middleware/authn"
	"library_api/internal/models"
)

type TokenManager interface {
	CreateToken(ctx context.Context, caller *models.Caller, name string) (string, models.AccessToken, error)
	ListTokens(ctx context.Context, caller *models.Caller) ([]models.AccessToken, error)
	RevokeToken(ctx context.Context, caller *models.Caller, tokenID int64) error
	RevokeAllTokens(ctx context.Context, caller *models.Caller) error
}

type CreateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateData struct {
	AccessToken    models.AccessToken `json:"access_token"`
	PlainTextToken string             `json:"plain_text_token"`
}

type CreateResponse struct {
	resp.Response
	Data CreateData `json:"data"`
}

type ListResponse struct {
	resp.Response
	Data []models.AccessToken `json:"data"`
}

func NewList(log *slog.Logger, manager TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tokens.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		list, err := manager.ListTokens(r.Context(), authn.CallerFrom(r.Context()))
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK("Tokens retrieved successfully"),
			Data:     list,
		})
	}
}

func NewCreate(log *slog.Logger, validate *validator.Validate, manager TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tokens.NewCreate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.WriteDecodeError(w, r, log, err)

			return
		}

		if err := validate.Struct(req); err != nil {
			resp.WriteValidationError(w, r, log, err)

			return
		}

		plain, token, err := manager.CreateToken(r.Context(), authn.CallerFrom(r.Context()), req.Name)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{
			Response: resp.OK("Token created successfully"),
			Data:     CreateData{AccessToken: token, PlainTextToken: plain},
		})
	}
}

func NewDelete(log *slog.Logger, manager TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tokens.NewDelete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			resp.WriteError(w, r, log, apperr.NotFound("Token not found"))

			return
		}

		if err := manager.RevokeToken(r.Context(), authn.CallerFrom(r.Context()), id); err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func NewDeleteAll(log *slog.Logger, manager TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tokens.NewDeleteAll"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := manager.RevokeAllTokens(r.Context(), authn.CallerFrom(r.Context())); err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
