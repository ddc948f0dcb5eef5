package logout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library_api/internal/lib/logger/handlers/slogdiscard"
	"library_api/internal/middleware/authn"
	"library_api/internal/models"
)

type stubRevoker struct {
	caller *models.Caller
	err    error
}

func (s *stubRevoker) Logout(_ context.Context, caller *models.Caller) error {
	s.caller = caller

	return s.err
}

func serve(rv TokenRevoker, caller *models.Caller) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/logout", nil)
	req = req.WithContext(authn.WithCaller(req.Context(), caller))

	rr := httptest.NewRecorder()
	New(slogdiscard.NewDiscardLogger(), rv).ServeHTTP(rr, req)

	return rr
}

func TestLogout(t *testing.T) {
	caller := &models.Caller{User: models.User{ID: 3}, TokenID: 11}
	rv := &stubRevoker{}

	rr := serve(rv, caller)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"message":"Successfully logged out"}`, rr.Body.String())
	assert.Same(t, caller, rv.caller)
}

func TestLogoutStoreFailure(t *testing.T) {
	rr := serve(&stubRevoker{err: errors.New("connection reset")}, &models.Caller{TokenID: 11})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection reset")
}
