package users

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"library_api/internal/apperr"
	"library_api/internal/lib/api/query"
	resp "library_api/internal/lib/api/response"
	"library_api/internal/middleware/authn"
	"library_api/internal/models"
)

const auditTimeLayout = "2006-01-02 15:04:05"

type UserAdmin interface {
	ListUsers(ctx context.Context, caller *models.Caller, page, perPage int) ([]models.User, models.PageMeta, error)
	UpdateRole(ctx context.Context, caller *models.Caller, targetID int64, role string) (models.User, error)
}

type Item struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            models.Role `json:"role"`
	EmailVerifiedAt *time.Time  `json:"email_verified_at"`
}

type ListResponse struct {
	resp.Response
	Data []Item          `json:"data"`
	Meta models.PageMeta `json:"meta"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type UpdatedUser struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type ChangedBy struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Metadata struct {
	UpdatedAt string    `json:"updated_at"`
	ChangedBy ChangedBy `json:"changed_by"`
}

type UpdateRoleResponse struct {
	resp.Response
	UpdatedUser UpdatedUser `json:"updated_user"`
	Metadata    Metadata    `json:"metadata"`
}

func NewList(log *slog.Logger, admin UserAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page, err := query.PositiveInt(r, "page", 1)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		perPage, err := query.PositiveInt(r, "per_page", 0)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		list, meta, err := admin.ListUsers(r.Context(), authn.CallerFrom(r.Context()), page, perPage)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		items := make([]Item, 0, len(list))
		for _, u := range list {
			items = append(items, Item{
				ID:              u.ID,
				Name:            u.Name,
				Email:           u.Email,
				Role:            u.Role,
				EmailVerifiedAt: u.EmailVerifiedAt,
			})
		}

		message := "Users retrieved successfully"
		if len(items) == 0 {
			message = "No users found"
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(message),
			Data:     items,
			Meta:     meta,
		})
	}
}

func NewUpdateRole(log *slog.Logger, validate *validator.Validate, admin UserAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.NewUpdateRole"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			resp.WriteError(w, r, log, apperr.NotFound("User not found").WithField("id", "User not found"))

			return
		}

		var req UpdateRoleRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.WriteDecodeError(w, r, log, err)

			return
		}

		if err := validate.Struct(req); err != nil {
			resp.WriteValidationError(w, r, log, err)

			return
		}

		caller := authn.CallerFrom(r.Context())

		updated, err := admin.UpdateRole(r.Context(), caller, targetID, req.Role)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.JSON(w, r, UpdateRoleResponse{
			Response: resp.OK("Role updated successfully"),
			UpdatedUser: UpdatedUser{
				ID:    updated.ID,
				Name:  updated.Name,
				Email: updated.Email,
				Role:  updated.Role,
			},
			Metadata: Metadata{
				UpdatedAt: updated.UpdatedAt.Format(auditTimeLayout),
				ChangedBy: ChangedBy{ID: caller.User.ID, Name: caller.User.Name},
			},
		})
	}
}
