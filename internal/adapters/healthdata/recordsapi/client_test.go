package recordsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, wantKey string, routes map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != wantKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestClient_Users(t *testing.T) {
	ts := newTestServer(t, "secret", map[string]string{
		"/v1/users": `{"user_ids":["user-1","user-2"]}`,
	})
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	users, err := c.Users(context.Background(), 10)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 2 || users[0] != "user-1" {
		t.Fatalf("unexpected users: %v", users)
	}
}

func TestClient_DependentsAndPlans(t *testing.T) {
	ts := newTestServer(t, "secret", map[string]string{
		"/v1/users/user-1/dependents":       `{"dependents":[{"id":"dep-1","name":"Abuela","relation":"grandparent"}]}`,
		"/v1/users/user-1/medication-plans": `{"plans":[{"id":"plan-1","name":"Enalapril","dose_times":["08:00"],"priority":"high","start_date":"2026-03-01T00:00:00Z"}]}`,
	})
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	deps, err := c.Dependents(ctx, "user-1")
	if err != nil {
		t.Fatalf("dependents: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != "dep-1" || deps[0].Relation != "grandparent" {
		t.Fatalf("unexpected dependents: %+v", deps)
	}

	plans, err := c.MedicationPlans(ctx, "user-1", "dep-1")
	if err != nil {
		t.Fatalf("plans: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "plan-1" || len(plans[0].DoseTimes) != 1 {
		t.Fatalf("unexpected plans: %+v", plans)
	}
}

func TestClient_UnauthorizedMapsToSentinel(t *testing.T) {
	ts := newTestServer(t, "secret", nil)
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "wrong", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.Users(context.Background(), 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_UpstreamErrorMapsToSentinel(t *testing.T) {
	ts := newTestServer(t, "secret", nil) // sin rutas: todo 404
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.LifecycleNotices(context.Background(), "user-1"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.Users(context.Background(), 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
