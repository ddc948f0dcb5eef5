// Package query parses optional query-string parameters into domain validation errors.
package query

import (
	"fmt"
	"net/http"
	"strconv"

	"library_api/internal/apperr"
)

const msgValidation = "Validation error"

// PositiveInt reads an optional integer parameter that must be at least 1.
func PositiveInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid(name, fmt.Sprintf("The %s field must be at least 1.", name))
	}

	return n, nil
}

// OptionalInt reads an optional integer parameter. A missing value yields nil.
func OptionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalid(name, fmt.Sprintf("The %s field must be an integer.", name))
	}

	return &n, nil
}

// OneOf reads an optional parameter restricted to the given values.
func OneOf(r *http.Request, name, def string, allowed ...string) (string, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	for _, a := range allowed {
		if raw == a {
			return raw, nil
		}
	}

	return "", invalid(name, fmt.Sprintf("The selected %s is invalid.", name))
}

func invalid(name, reason string) error {
	return apperr.Validation(msgValidation, map[string][]string{name: {reason}})
}
