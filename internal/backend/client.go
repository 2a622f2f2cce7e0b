package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/models"
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error returns the backend message verbatim.
func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client talks to the HTTP API with a bearer token. It implements AuthAPI and TaskAPI.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the API at baseURL. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken installs the access token of a restored session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*Session, error) {
	var resp dto.AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	c.SetToken(resp.Token)
	return &Session{User: resp.User, Token: resp.Token, ExpiresAt: resp.ExpiresAt}, nil
}

// SignOut drops the token. Bearer tokens are stateless, so an unreachable
// server does not fail the sign-out.
func (c *Client) SignOut(ctx context.Context) error {
	defer c.SetToken("")

	var apiErr *APIError
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); errors.As(err, &apiErr) {
		return err
	}
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (*dto.UserDTO, error) {
	if c.Token() == "" {
		return nil, nil
	}

	var user dto.UserDTO
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		if IsUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) SelectTasks(ctx context.Context, order Order) ([]models.Task, error) {
	var resp dto.TaskListResponse
	path := "/api/tasks?order=" + url.QueryEscape(string(order))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) InsertTask(ctx context.Context, row dto.NewTaskRow) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", row, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, fields dto.UpdateTaskDTO) (*models.Task, error) {
	var task models.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), fields, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// SuggestTasks asks the backend for AI task drafts.
func (c *Client) SuggestTasks(ctx context.Context, text string) ([]dto.CreateTaskDTO, error) {
	var resp dto.GenerateTasksResponse
	if err := c.do(ctx, http.MethodPost, "/api/tasks/generate", map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		// Non-JSON bodies (proxies, gin's default 404) keep the status text.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
