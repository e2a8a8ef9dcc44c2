package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/models/entities"
	"infinite-experiment/roster/internal/ranks"
	"infinite-experiment/roster/internal/services"
)

const (
	testGuild = "700000000000000001"
	testActor = "900000000000000001"
)

type mockRanks struct {
	ChangeFunc func(ctx context.Context, op ranks.Operation, cmd services.RankCommand) (*dtos.RankChangeResponse, error)
	SetupFunc  func(ctx context.Context, guildID, actorID string, tokens []string) (*dtos.HierarchyResponse, error)
	ViewFunc   func(ctx context.Context, guildID string) (*dtos.HierarchyResponse, error)
}

func (m *mockRanks) Change(ctx context.Context, op ranks.Operation, cmd services.RankCommand) (*dtos.RankChangeResponse, error) {
	return m.ChangeFunc(ctx, op, cmd)
}

func (m *mockRanks) SetupHierarchy(ctx context.Context, guildID, actorID string, tokens []string) (*dtos.HierarchyResponse, error) {
	return m.SetupFunc(ctx, guildID, actorID, tokens)
}

func (m *mockRanks) ViewHierarchy(ctx context.Context, guildID string) (*dtos.HierarchyResponse, error) {
	return m.ViewFunc(ctx, guildID)
}

type mockLifecycle struct {
	calls []string
	err   error
}

func (m *mockLifecycle) Break(_ context.Context, guildID, userID string) (*dtos.LifecycleResponse, error) {
	m.calls = append(m.calls, "break:"+userID)
	if m.err != nil {
		return nil, m.err
	}
	return &dtos.LifecycleResponse{Event: "break", GuildID: guildID, UserID: userID, Message: "on break"}, nil
}

func (m *mockLifecycle) Resign(_ context.Context, guildID, userID string) (*dtos.LifecycleResponse, error) {
	m.calls = append(m.calls, "resign:"+userID)
	if m.err != nil {
		return nil, m.err
	}
	return &dtos.LifecycleResponse{Event: "resign", GuildID: guildID, UserID: userID, Message: "resigned"}, nil
}

type mockButtons struct {
	got services.ButtonClick
}

func (m *mockButtons) HandleButton(_ context.Context, click services.ButtonClick) (*dtos.InteractionResponse, error) {
	m.got = click
	return &dtos.InteractionResponse{Action: "approve_comeback", Message: "approved"}, nil
}

func withClaims(r *http.Request, guildID, userID string) *http.Request {
	ctx := auth.SetUserClaims(r.Context(), &auth.APIKeyClaims{DiscordServerIDVal: guildID, DiscordUIDVal: userID})
	return r.WithContext(ctx)
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) dtos.APIResponse {
	t.Helper()
	var resp dtos.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestRankChangeHandler(t *testing.T) {
	var got services.RankCommand
	var gotOp ranks.Operation
	svc := &mockRanks{
		ChangeFunc: func(_ context.Context, op ranks.Operation, cmd services.RankCommand) (*dtos.RankChangeResponse, error) {
			gotOp, got = op, cmd
			return &dtos.RankChangeResponse{Operation: string(op), Message: "promoted"}, nil
		},
	}

	r := chi.NewRouter()
	r.Post("/ranks/{operation}", RankChangeHandler(svc))

	body := `{"target_id":"100000000000000001","reason":"good work"}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/ranks/promote", strings.NewReader(body)), testGuild, testActor)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ranks.OpPromote, gotOp)
	assert.Equal(t, services.RankCommand{
		GuildID:  testGuild,
		ActorID:  testActor,
		TargetID: "100000000000000001",
		Reason:   "good work",
	}, got)

	resp := decodeResponse(t, rr)
	assert.Equal(t, string(constants.APIStatusOk), resp.Status)
	assert.Equal(t, "promoted", resp.Message)
}

func TestRankChangeHandler_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"configuration", common.ConfigurationError(constants.ErrCodeHierarchyNotConfigured, nil), http.StatusConflict},
		{"privilege", common.PrivilegeError(constants.ErrCodeNotAdministrator, nil), http.StatusForbidden},
		{"state", common.StateError(constants.ErrCodeAlreadyHighest, nil), http.StatusUnprocessableEntity},
		{"not found", common.StateError(constants.ErrCodeMemberNotFound, nil), http.StatusNotFound},
		{"transient", common.TransientError(constants.ErrCodePlatformFailure, errors.New("discord 500")), http.StatusBadGateway},
		{"lock", common.TransientError(constants.ErrCodeLockTimeout, nil), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockRanks{
				ChangeFunc: func(context.Context, ranks.Operation, services.RankCommand) (*dtos.RankChangeResponse, error) {
					return nil, tc.err
				},
			}
			r := chi.NewRouter()
			r.Post("/ranks/{operation}", RankChangeHandler(svc))

			req := withClaims(httptest.NewRequest(http.MethodPost, "/ranks/hire", strings.NewReader(`{"target_id":"1"}`)), testGuild, testActor)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.code, rr.Code)
			resp := decodeResponse(t, rr)
			assert.Equal(t, string(constants.APIStatusError), resp.Status)
			assert.NotContains(t, resp.Message, "discord 500")
		})
	}
}

func TestRankChangeHandler_BadBody(t *testing.T) {
	called := false
	svc := &mockRanks{
		ChangeFunc: func(context.Context, ranks.Operation, services.RankCommand) (*dtos.RankChangeResponse, error) {
			called = true
			return nil, nil
		},
	}
	r := chi.NewRouter()
	r.Post("/ranks/{operation}", RankChangeHandler(svc))

	req := withClaims(httptest.NewRequest(http.MethodPost, "/ranks/hire", strings.NewReader(`{"target":`)), testGuild, testActor)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, called)
}

func TestSetupHierarchyHandler(t *testing.T) {
	var tokens []string
	svc := &mockRanks{
		SetupFunc: func(_ context.Context, guildID, actorID string, in []string) (*dtos.HierarchyResponse, error) {
			tokens = in
			return &dtos.HierarchyResponse{GuildID: guildID, Message: "saved"}, nil
		},
	}

	body, _ := json.Marshal(dtos.HierarchySetupRequest{Roles: []string{"Trainee", "<@&2>", "3"}})
	req := withClaims(httptest.NewRequest(http.MethodPut, "/hierarchy", bytes.NewReader(body)), testGuild, testActor)
	rr := httptest.NewRecorder()
	SetupHierarchyHandler(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Trainee", "<@&2>", "3"}, tokens)
}

func TestLifecycleHandlers(t *testing.T) {
	svc := &mockLifecycle{}

	rr := httptest.NewRecorder()
	BreakHandler(svc).ServeHTTP(rr, withClaims(httptest.NewRequest(http.MethodPost, "/workflow/break", nil), testGuild, testActor))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	ResignHandler(svc).ServeHTTP(rr, withClaims(httptest.NewRequest(http.MethodPost, "/workflow/resign", nil), testGuild, testActor))
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, []string{"break:" + testActor, "resign:" + testActor}, svc.calls)
}

func TestLifecycleHandlers_RequireMember(t *testing.T) {
	svc := &mockLifecycle{}

	rr := httptest.NewRecorder()
	ResignHandler(svc).ServeHTTP(rr, withClaims(httptest.NewRequest(http.MethodPost, "/workflow/resign", nil), testGuild, ""))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, svc.calls)
}

func TestButtonInteractionHandler(t *testing.T) {
	svc := &mockButtons{}

	body := `{"custom_id":"approve_comeback_100000000000000001","channel_id":"500000000000000002","message_id":"42"}`
	req := withClaims(httptest.NewRequest(http.MethodPost, "/interactions/button", strings.NewReader(body)), testGuild, testActor)
	rr := httptest.NewRecorder()
	ButtonInteractionHandler(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testGuild, svc.got.GuildID)
	assert.Equal(t, testActor, svc.got.UserID)
	assert.Equal(t, "approve_comeback_100000000000000001", svc.got.CustomID)
	assert.Equal(t, "500000000000000002", svc.got.Message.ChannelID)
	assert.Equal(t, "42", svc.got.Message.MessageID)
}

func TestHealthCheckHandler(t *testing.T) {
	upSince := time.Now().Add(-time.Minute)

	t.Run("all ok", func(t *testing.T) {
		h := HealthCheckHandler(upSince, map[string]Pinger{
			"database": PingFunc(func(context.Context) error { return nil }),
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp entities.HealthCheckResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Services["database"].Status)
	})

	t.Run("redis down", func(t *testing.T) {
		h := HealthCheckHandler(upSince, map[string]Pinger{
			"database": PingFunc(func(context.Context) error { return nil }),
			"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		var resp entities.HealthCheckResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "down", resp.Status)
		assert.Equal(t, "connection refused", resp.Services["redis"].Details)
	})
}
