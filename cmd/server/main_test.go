package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/amencash/internal/auth"
	"github.com/mmynk/amencash/internal/config"
	"github.com/mmynk/amencash/internal/events"
	"github.com/mmynk/amencash/internal/ledger"
	"github.com/mmynk/amencash/internal/metrics"
	"github.com/mmynk/amencash/internal/service"
	"github.com/mmynk/amencash/internal/storage/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.PasswordAuthenticator) {
	t.Helper()

	cfg := &config.Config{MetricsPath: "/metrics"}
	store := memory.New()
	m := metrics.New()
	engine := ledger.New(store, ledger.WithMetrics(m))
	jwtManager := auth.NewJWTManager("main-test-secret-key", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	server := httptest.NewServer(newHandler(cfg, store, engine, authenticator, jwtManager, m))
	t.Cleanup(server.Close)
	return server, authenticator
}

func TestHandler_Health(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandler_SeedLoginAndMetrics(t *testing.T) {
	server, authenticator := newTestServer(t)
	ctx := context.Background()

	seedDemoUsers(ctx, authenticator)
	seedDemoUsers(ctx, authenticator) // idempotent

	client := service.NewAuthServiceClient(http.DefaultClient, server.URL)
	resp, err := client.Login.CallUnary(ctx, connect.NewRequest(&service.LoginRequest{
		Identifier: "alice",
		Password:   demoPassword,
	}))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resp.Msg.User.Email)
	assert.NotEmpty(t, resp.Msg.Token)

	metricsResp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `procedure="/amencash.v1.AuthService/Login"`),
		"expected RPC metrics for Login")
}

func TestHandler_UnknownProcedure(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/amencash.v1.GroupService/Nope", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := openStore(&config.Config{DataBackend: "memory"})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestOpenPublisher_Disabled(t *testing.T) {
	publisher, err := openPublisher(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, events.NopPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), events.Event{Type: events.GroupCreated, GroupID: "g1"}))
}
