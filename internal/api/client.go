package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client talks to the Study Planner API. The bearer token is process-wide
// shared state: the session manager is the sole writer, every request is a
// reader. Reads and writes happen on different goroutines, hence the mutex.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// SetToken installs the access token attached to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the outgoing authorization value.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token pair. It does not install the
// token; that is the session manager's decision.
func (c *Client) Login(ctx context.Context, username, password string) (Credentials, error) {
	body := map[string]string{"username": username, "password": password}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/login/", body, &creds); err != nil {
		if se, ok := err.(*ServerError); ok && (se.Status == http.StatusUnauthorized || se.Status == http.StatusBadRequest) {
			return Credentials{}, &AuthError{Detail: se.Detail}
		}
		return Credentials{}, err
	}
	return creds, nil
}

// Me fetches the caller's canonical profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/users/me/", nil, &u)
	return u, err
}

// Register creates an account. The new account is not logged in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/register/", req, &u); err != nil {
		if se, ok := err.(*ServerError); ok && se.Status == http.StatusBadRequest {
			return User{}, &RegistrationError{Detail: se.Detail}
		}
		return User{}, err
	}
	return u, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := c.do(ctx, http.MethodGet, "/tasks/", nil, &tasks)
	return tasks, err
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodPost, "/tasks/", req, &t)
	return t, err
}

// UpdateTask sends a partial update and returns the server's record, which
// is authoritative over any local guess.
func (c *Client) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/", id), patch, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d/", id), nil, nil)
}

// WeeklyStats returns the server's pre-aggregated per-day completion counts
// for the last seven days.
func (c *Client) WeeklyStats(ctx context.Context) ([]WeeklyBucket, error) {
	var buckets []WeeklyBucket
	err := c.do(ctx, http.MethodGet, "/tasks/stats_weekly/", nil, &buckets)
	return buckets, err
}

func (c *Client) ListSubjects(ctx context.Context) ([]Subject, error) {
	var subjects []Subject
	err := c.do(ctx, http.MethodGet, "/subjects/", nil, &subjects)
	return subjects, err
}

func (c *Client) CreateSubject(ctx context.Context, name string) (Subject, error) {
	var s Subject
	err := c.do(ctx, http.MethodPost, "/subjects/", map[string]string{"name": name}, &s)
	return s, err
}

// ListUsers returns the full roster. Admin only; the server enforces it.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.do(ctx, http.MethodGet, "/users/", nil, &users)
	return users, err
}

func (c *Client) AdminStats(ctx context.Context) (AdminStats, error) {
	var stats AdminStats
	err := c.do(ctx, http.MethodGet, "/users/stats/", nil, &stats)
	return stats, err
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) error {
	body := map[string]string{
		"old_password":     oldPassword,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	}
	return c.do(ctx, http.MethodPost, "/users/change_password/", body, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d/", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := decodeDetail(data)
		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{Detail: detail}
		}
		return &ServerError{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeDetail extracts a human-readable message from an error body. The
// API answers either {"detail": "..."} or a field-to-messages map.
func decodeDetail(data []byte) string {
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}

	var fields map[string][]string
	if err := json.Unmarshal(data, &fields); err == nil && len(fields) > 0 {
		var parts []string
		for field, msgs := range fields {
			parts = append(parts, field+": "+strings.Join(msgs, " "))
		}
		return strings.Join(parts, "; ")
	}

	return strings.TrimSpace(string(data))
}
