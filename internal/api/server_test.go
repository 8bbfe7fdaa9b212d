// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizcore/internal/api"
	"github.com/taibuivan/bizcore/internal/identity/auth"
	"github.com/taibuivan/bizcore/internal/platform/config"
	"github.com/taibuivan/bizcore/internal/platform/metrics"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/platform/tenant"
)

type rejectAll struct{}

func (rejectAll) VerifyToken(string) (*sec.AuthClaims, error) { return nil, sec.ErrTokenInvalid }

type noScope struct{}

func (noScope) ResolveScope(_ context.Context, userID, _ string) (tenant.Scope, error) {
	return tenant.Scope{UserID: userID}, nil
}

func newRouter(t *testing.T, deps api.HealthDependencies) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	liveness, readiness := api.NewHealthHandlers(deps, logger)

	registry := prometheus.NewRegistry()
	authMetrics := metrics.NewAuth(registry)
	authMetrics.Registered()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return api.Router(ctx, &config.Config{Environment: "test"}, logger, rejectAll{}, noScope{}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(registry),
		Auth:      auth.NewHandler(&auth.Service{}, nil),
	})
}

/*
TestReadiness reports degraded when any dependency check fails.
*/
func TestReadiness(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("dial tcp: refused") }

	tests := []struct {
		name   string
		deps   api.HealthDependencies
		status int
		state  string
	}{
		{"ready", api.HealthDependencies{CheckDatabase: healthy, CheckCache: healthy}, http.StatusOK, "ready"},
		{"redis_down", api.HealthDependencies{CheckDatabase: healthy, CheckCache: broken}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			newRouter(t, tt.deps).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, tt.status, recorder.Code)

			var envelope struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, tt.state, envelope.Data.Status)
		})
	}
}

/*
TestRouter_Metrics exposes the auth counters.
*/
func TestRouter_Metrics(t *testing.T) {
	recorder := httptest.NewRecorder()
	newRouter(t, api.HealthDependencies{}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "bizcore_registrations_total"))
}

/*
TestRouter_RejectsInvalidBearer answers protected routes with 401 for bad tokens.
*/
func TestRouter_RejectsInvalidBearer(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.Header.Set("Authorization", "Bearer nope")

	recorder := httptest.NewRecorder()
	newRouter(t, api.HealthDependencies{}).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
