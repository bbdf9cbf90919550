package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tokend/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusCreated, map[string]string{"client_id": "spa"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	require.JSONEq(t, `{"client_id":"spa"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	type body struct {
		Name string `json:"name"`
	}
	decode := func(s string) (body, error) {
		var b body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(s))
		return b, httpx.DecodeJSON(httptest.NewRecorder(), req, &b)
	}

	b, err := decode(`{"name":"backend"}`)
	require.NoError(t, err)
	require.Equal(t, "backend", b.Name)

	_, err = decode("")
	require.ErrorIs(t, err, httpx.ErrEmptyBody)

	for name, in := range map[string]string{
		"unknown field": `{"name":"x","admin":true}`,
		"not json":      `name=x`,
		"trailing data": `{"name":"x"} {"name":"y"}`,
		"too large":     `{"name":"` + strings.Repeat("a", httpx.MaxJSONBody) + `"}`,
	} {
		_, err := decode(in)
		require.Error(t, err, name)
		require.NotErrorIs(t, err, httpx.ErrEmptyBody, name)
	}
}

func TestNormalizeSpaceList(t *testing.T) {
	t.Parallel()

	require.Equal(t, "openid profile offline_access", httpx.NormalizeSpaceList("  openid   profile\toffline_access "))
	require.Empty(t, httpx.NormalizeSpaceList("   "))
}
