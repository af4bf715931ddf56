package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/amencash/internal/auth"
	"github.com/mmynk/amencash/internal/ledger"
	"github.com/mmynk/amencash/internal/storage"
	"github.com/mmynk/amencash/internal/storage/memory"
	"github.com/mmynk/amencash/internal/storage/sqlite"
)

type testClients struct {
	auth     *AuthServiceClient
	groups   *GroupServiceClient
	expenses *ExpenseServiceClient
	engine   *ledger.Engine
}

// setupTestServer wires every service over store behind an httptest server.
func setupTestServer(t *testing.T, store storage.Store) *testClients {
	t.Helper()

	engine := ledger.New(store)
	jwtManager := auth.NewJWTManager("service-test-secret-key", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, slog.Default()), jwtManager))
	mux.Handle(NewGroupServiceHandler(NewGroupService(engine), jwtManager))
	mux.Handle(NewExpenseServiceHandler(NewExpenseService(engine), jwtManager))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testClients{
		auth:     NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:   NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: NewExpenseServiceClient(http.DefaultClient, server.URL),
		engine:   engine,
	}
}

func setupMemoryServer(t *testing.T) *testClients {
	t.Helper()
	return setupTestServer(t, memory.New())
}

func setupSQLiteServer(t *testing.T) *testClients {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return setupTestServer(t, store)
}

type session struct {
	userID string
	token  string
}

// register signs up username and returns its session.
func (c *testClients) register(t *testing.T, username string) session {
	t.Helper()
	resp, err := c.auth.Register.CallUnary(context.Background(), connect.NewRequest(&RegisterRequest{
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	return session{userID: resp.Msg.User.ID, token: resp.Msg.Token}
}

// as builds a request authenticated as s.
func as[T any](s session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+s.token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}
