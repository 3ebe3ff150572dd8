package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

// ============================================================
// Request plumbing
// ============================================================

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(User{ID: 1})
	}))
	defer srv.Close()

	c.SetToken("tok-abc")
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("expected Bearer tok-abc, got %q", gotAuth)
	}
}

func TestNoHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c.ListTasks(context.Background())
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestClearToken(t *testing.T) {
	c := New("http://localhost", time.Second)
	c.SetToken("tok")
	c.ClearToken()
	if c.Token() != "" {
		t.Errorf("expected empty token, got %q", c.Token())
	}
}

func TestNetworkError(t *testing.T) {
	// Point at a closed server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := New(srv.URL, time.Second)
	srv.Close()

	_, err := c.ListTasks(context.Background())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if ne.Unwrap() == nil {
		t.Error("expected wrapped transport error")
	}
}

// ============================================================
// Authentication endpoints
// ============================================================

func TestLogin(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "secret" {
			t.Errorf("unexpected credentials: %v", body)
		}
		json.NewEncoder(w).Encode(Credentials{Access: "acc", Refresh: "ref"})
	}))
	defer srv.Close()

	creds, err := c.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if creds.Access != "acc" || creds.Refresh != "ref" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	// Login must not install the token itself.
	if c.Token() != "" {
		t.Errorf("login installed token %q", c.Token())
	}
}

func TestLoginRejected(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "No active account found"}`))
	}))
	defer srv.Close()

	_, err := c.Login(context.Background(), "alice", "wrong")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if ae.Detail != "No active account found" {
		t.Errorf("unexpected detail: %q", ae.Detail)
	}
}

func TestLoginBadRequestIsAuthError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "missing fields"}`))
	}))
	defer srv.Close()

	_, err := c.Login(context.Background(), "", "")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError for 400 on login, got %T", err)
	}
}

func TestExpiredTokenIsAuthError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "token not valid"}`))
	}))
	defer srv.Close()

	c.SetToken("stale")
	_, err := c.ListTasks(context.Background())
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestRegisterValidationFailure(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username": ["already taken"]}`))
	}))
	defer srv.Close()

	_, err := c.Register(context.Background(), RegisterRequest{Username: "alice"})
	var re *RegistrationError
	if !errors.As(err, &re) {
		t.Fatalf("expected RegistrationError, got %T: %v", err, err)
	}
	if re.Detail != "username: already taken" {
		t.Errorf("unexpected detail: %q", re.Detail)
	}
}

// ============================================================
// Task endpoints
// ============================================================

func TestUpdateTaskPartialBody(t *testing.T) {
	var gotBody map[string]any
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/tasks/7/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		json.NewEncoder(w).Encode(Task{ID: 7, Completed: true})
	}))
	defer srv.Close()

	done := true
	task, err := c.UpdateTask(context.Background(), 7, TaskPatch{Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	if !task.Completed {
		t.Error("expected server task echoed back")
	}
	// Only the touched field crosses the wire.
	if len(gotBody) != 1 {
		t.Fatalf("expected exactly one field, got %v", gotBody)
	}
	if v, ok := gotBody["completed"].(bool); !ok || !v {
		t.Errorf("expected completed=true, got %v", gotBody)
	}
}

func TestDeleteTaskNoContent(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/tasks/3/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := c.DeleteTask(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
}

func TestServerErrorDetail(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "not yours"}`))
	}))
	defer srv.Close()

	err := c.DeleteTask(context.Background(), 3)
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %T: %v", err, err)
	}
	if se.Status != http.StatusForbidden || se.Detail != "not yours" {
		t.Errorf("unexpected error: %+v", se)
	}
}

// ============================================================
// Error body decoding
// ============================================================

func TestDecodeDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail field", `{"detail": "nope"}`, "nope"},
		{"field map", `{"email": ["invalid address"]}`, "email: invalid address"},
		{"plain text", `  gateway exploded  `, "gateway exploded"},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
