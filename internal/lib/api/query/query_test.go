package query

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library_api/internal/apperr"
)

func TestPositiveInt(t *testing.T) {
	tests := []struct {
		url     string
		want    int
		wantErr bool
	}{
		{url: "/", want: 7},
		{url: "/?page=3", want: 3},
		{url: "/?page=0", wantErr: true},
		{url: "/?page=-1", wantErr: true},
		{url: "/?page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			n, err := PositiveInt(httptest.NewRequest("GET", tt.url, nil), "page", 7)
			if tt.wantErr {
				e, ok := apperr.As(err)
				require.True(t, ok)
				assert.Equal(t, apperr.KindValidation, e.Kind)
				assert.Contains(t, e.Fields, "page")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestOptionalInt(t *testing.T) {
	n, err := OptionalInt(httptest.NewRequest("GET", "/", nil), "published_year")
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = OptionalInt(httptest.NewRequest("GET", "/?published_year=1999", nil), "published_year")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 1999, *n)

	_, err = OptionalInt(httptest.NewRequest("GET", "/?published_year=old", nil), "published_year")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestOneOf(t *testing.T) {
	v, err := OneOf(httptest.NewRequest("GET", "/", nil), "order", "asc", "asc", "desc")
	require.NoError(t, err)
	assert.Equal(t, "asc", v)

	v, err = OneOf(httptest.NewRequest("GET", "/?order=desc", nil), "order", "asc", "asc", "desc")
	require.NoError(t, err)
	assert.Equal(t, "desc", v)

	_, err = OneOf(httptest.NewRequest("GET", "/?order=random", nil), "order", "asc", "asc", "desc")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
