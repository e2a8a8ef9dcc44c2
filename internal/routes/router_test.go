package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/roster/internal/api"
	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/db/dbtest"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/platform/platformtest"
)

const (
	guildID  = "700000000000000001"
	adminID  = "900000000000000001"
	memberID = "100000000000000001"
	apiKey   = "test-key"
)

type testServer struct {
	handler http.Handler
	fake    *platformtest.Fake
	deps    *api.Dependencies
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Auth.JWTSecret = "router-test-secret"

	gdb := dbtest.Open(t)
	sdb := dbtest.OpenSqlx(t, gdb)

	fake := platformtest.New()
	fake.AddGuild(guildID, "Test Guild", "Trainee", "Staff", "Manager")
	fake.AddMember(guildID, adminID)
	fake.MakeAdmin(guildID, adminID)
	fake.AddMember(guildID, memberID)

	deps, err := api.InitDependencies(cfg, gdb, sdb, fake, metrics.NewTestRegistry())
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	require.NoError(t, deps.Repo.Keys.Create(context.Background(), apiKey))

	return &testServer{
		handler: RegisterRoutes(deps, cfg.HTTP, time.Now()),
		fake:    fake,
		deps:    deps,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func botHeaders(actor string) map[string]string {
	return map[string]string{
		"X-API-Key":    apiKey,
		"X-Server-Id":  guildID,
		"X-Discord-Id": actor,
	}
}

func TestRouter_HierarchyThenHire(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPut, "/api/v1/hierarchy", `{"roles":["Trainee","Staff","Manager"]}`, botHeaders(adminID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/v1/ranks/hire", `{"target_id":"`+memberID+`"}`, botHeaders(adminID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"Trainee"}, s.fake.MemberRoles(guildID, memberID))

	rr = s.do(t, http.MethodPost, "/api/v1/ranks/promote", `{"target_id":"`+memberID+`"}`, botHeaders(adminID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"Staff"}, s.fake.MemberRoles(guildID, memberID))

	rr = s.do(t, http.MethodGet, "/api/v1/hierarchy", "", botHeaders(adminID))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp dtos.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, data["roles"], 3)
}

func TestRouter_NonAdminRefused(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPut, "/api/v1/hierarchy", `{"roles":["Trainee","Staff"]}`, botHeaders(memberID))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_Authentication(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing credentials", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/hierarchy", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/hierarchy", "", map[string]string{
			"X-API-Key":   "nope",
			"X-Server-Id": guildID,
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		token, err := s.deps.Signer.Issue("bot-frontend", guildID, "", time.Hour)
		require.NoError(t, err)
		rr := s.do(t, http.MethodGet, "/api/v1/hierarchy", "", map[string]string{
			"Authorization": "Bearer " + token,
			"X-Discord-Id":  adminID,
		})
		// authenticated, but nothing is configured yet
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("bad guild id", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/hierarchy", "", map[string]string{
			"X-API-Key":   apiKey,
			"X-Server-Id": "not-a-guild",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/healthCheck", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "roster_http_requests_total")
}
