package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authhttp "github.com/aussiebroadwan/tokend/internal/auth/http"
	"github.com/aussiebroadwan/tokend/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type keysReady bool

func (k keysReady) IsReady() bool { return bool(k) }

func TestHealthHandler_Readyz(t *testing.T) {
	t.Parallel()

	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name     string
		h        authhttp.HealthHandler
		wantCode int
		want     authsdk.HealthChecks
	}{
		{
			name:     "ready",
			h:        authhttp.HealthHandler{DB: up, Keys: keysReady(true)},
			wantCode: http.StatusOK,
			want:     authsdk.HealthChecks{Database: "ok", Signer: "ok"},
		},
		{
			name:     "token store down",
			h:        authhttp.HealthHandler{DB: up, Tokens: down, Keys: keysReady(true)},
			wantCode: http.StatusServiceUnavailable,
			want:     authsdk.HealthChecks{Database: "ok", Tokens: "error: connection refused", Signer: "ok"},
		},
		{
			name:     "no keys",
			h:        authhttp.HealthHandler{DB: up, Tokens: up, Keys: keysReady(false)},
			wantCode: http.StatusServiceUnavailable,
			want:     authsdk.HealthChecks{Database: "ok", Tokens: "ok", Signer: "error: no signing keys loaded"},
		},
		{
			name:     "database down",
			h:        authhttp.HealthHandler{DB: down, Keys: keysReady(true)},
			wantCode: http.StatusServiceUnavailable,
			want:     authsdk.HealthChecks{Database: "error: connection refused", Signer: "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.h.Started = time.Now()

			rec := httptest.NewRecorder()
			tt.h.HandleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, tt.wantCode, rec.Code)

			got := decode[authsdk.HealthResponse](t, rec.Body)
			require.Equal(t, tt.want, *got.Checks)
			if tt.wantCode == http.StatusOK {
				require.Equal(t, "ok", got.Status)
			} else {
				require.Equal(t, "degraded", got.Status)
			}
		})
	}
}

func TestHealthHandler_PingDeadline(t *testing.T) {
	t.Parallel()

	var deadline bool
	h := authhttp.HealthHandler{
		DB: pingFunc(func(ctx context.Context) error {
			_, deadline = ctx.Deadline()
			return nil
		}),
		Keys: keysReady(true),
	}
	h.HandleReadyz(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.True(t, deadline)
}
