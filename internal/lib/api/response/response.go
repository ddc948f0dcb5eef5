package response

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"library_api/internal/apperr"
	sl "library_api/internal/lib/logger/sl"
)

type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

const (
	msgValidation = "Validation error"
	msgInternal   = "Internal error"
)

func OK(message string) Response {
	return Response{
		Success: true,
		Message: message,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

func ErrorWithFields(message string, fields map[string][]string) Response {
	return Response{
		Success: false,
		Message: message,
		Errors:  fields,
	}
}

// ValidationError собирает ошибки валидатора по полям запроса.
func ValidationError(errs validator.ValidationErrors) Response {
	return ErrorWithFields(msgValidation, ValidationFields(errs))
}

// ValidationFields turns validator errors into field -> reasons.
func ValidationFields(errs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string, len(errs))

	for _, err := range errs {
		field := err.Field()

		var msg string

		switch err.ActualTag() {
		case "required":
			msg = fmt.Sprintf("The %s field is required.", field)
		case "email":
			msg = fmt.Sprintf("The %s field must be a valid email address.", field)
		case "min":
			msg = fmt.Sprintf("The %s field must be at least %s.", field, err.Param())
		case "max":
			msg = fmt.Sprintf("The %s field must not be greater than %s.", field, err.Param())
		case "eqfield":
			msg = fmt.Sprintf("The %s field confirmation does not match.", strings.TrimSuffix(field, "_confirmation"))
		case "oneof":
			msg = fmt.Sprintf("The selected %s is invalid.", field)
		default:
			msg = fmt.Sprintf("The %s field is not valid.", field)
		}

		fields[field] = append(fields[field], msg)
	}

	return fields
}

// StatusOf maps an error kind to the HTTP status reported to the caller.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusUnprocessableEntity
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidToken, apperr.KindThrottled:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError пишет ответ для ошибки сервиса. Неожиданные ошибки логируются,
// клиент получает только общий 500.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		log.Error("unexpected error", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorWithFields(msgInternal, map[string][]string{
			"server": {"An unexpected error occurred"},
		}))

		return
	}

	log.Info("request rejected", slog.String("kind", e.Kind.String()), slog.String("reason", e.Message))

	render.Status(r, StatusOf(e.Kind))
	render.JSON(w, r, ErrorWithFields(e.Message, e.Fields))
}

// WriteDecodeError reports a body that could not be parsed as JSON.
func WriteDecodeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Error("failed to decode request body", sl.Err(err))

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error("Failed to decode request"))
}

// WriteValidationError reports validator failures with 422.
func WriteValidationError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	validateErr, ok := err.(validator.ValidationErrors)
	if !ok {
		WriteError(w, r, log, err)

		return
	}

	log.Info("invalid request", sl.Err(err))

	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, ValidationError(validateErr))
}
