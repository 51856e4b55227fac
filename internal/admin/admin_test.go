package admin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hexactf/internal/api"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, 0)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewService(client)
}

func TestUsersReadsNestedAndFlatShapes(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","data":{"users":[{"username":"guest01","role":"admin","score":250}]}}`))
	})
	users, err := svc.Users(context.Background())
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "guest01" || users[0].Role != "admin" {
		t.Fatalf("users = %+v", users)
	}

	flat := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","users":[{"username":"guest02","role":"user"}]}`))
	})
	users, err = flat.Users(context.Background())
	if err != nil {
		t.Fatalf("users flat: %v", err)
	}
	if len(users) != 1 || users[0].Username != "guest02" {
		t.Fatalf("users = %+v", users)
	}
}

func TestSetRoleEscapesUsername(t *testing.T) {
	var gotPath, gotBody string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`{"status":"ok"}`))
	})
	if err := svc.SetRole(context.Background(), "weird/user", "admin"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if gotPath != "/api/admin/users/weird%2Fuser/role" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody != `{"role":"admin"}` {
		t.Fatalf("body = %s", gotBody)
	}
}

func TestDeleteUserRefusesSelf(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"status":"ok"}`))
	})
	err := svc.DeleteUser(context.Background(), "guest01", "guest01")
	if !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if called {
		t.Fatalf("self delete must not reach the network")
	}
	if err := svc.DeleteUser(context.Background(), "guest02", "guest01"); err != nil {
		t.Fatalf("delete other: %v", err)
	}
	if !called {
		t.Fatalf("delete should reach the server")
	}
}

func TestInstanceLimitRoundTripAndValidation(t *testing.T) {
	var gotMethod, gotBody string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if r.Method == http.MethodPost {
			raw, _ := io.ReadAll(r.Body)
			gotBody = string(raw)
		}
		w.Write([]byte(`{"status":"ok","user_instance_limit":3}`))
	})
	limit, err := svc.InstanceLimit(context.Background())
	if err != nil {
		t.Fatalf("instance limit: %v", err)
	}
	if limit != 3 {
		t.Fatalf("limit = %d", limit)
	}
	if err := svc.SetInstanceLimit(context.Background(), 5); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	if gotMethod != http.MethodPost || gotBody != `{"user_instance_limit":5}` {
		t.Fatalf("method=%q body=%s", gotMethod, gotBody)
	}
	if err := svc.SetInstanceLimit(context.Background(), -1); !errors.Is(err, ErrNegativeLimit) {
		t.Fatalf("expected ErrNegativeLimit, got %v", err)
	}
}

func TestResetScoreboard(t *testing.T) {
	var gotPath string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"ok"}`))
	})
	if err := svc.ResetScoreboard(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if gotPath != "/api/admin/scoreboard/reset" {
		t.Fatalf("path = %q", gotPath)
	}
}
