// Package mstodo implements service.Service using the Microsoft Graph To Do API.
package mstodo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"todocli/internal/logging"
	"todocli/internal/service"
)

const (
	// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	// APITimeout is the timeout for API calls.
	APITimeout = 15 * time.Second

	// maxPages bounds @odata.nextLink following.
	maxPages = 50
)

// Client implements service.Service against Microsoft Graph.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a client that sends accessToken as a bearer token.
// An empty baseURL uses DefaultBaseURL.
func New(ctx context.Context, accessToken, baseURL string, logger *slog.Logger) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return NewWithHTTPClient(oauth2.NewClient(ctx, ts), baseURL, logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(logging.Provider("mstodo")),
	}
}

type todoList struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type todoTask struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// ListLists returns all To Do lists. A non-200 response yields an empty
// slice and an *APIError.
func (c *Client) ListLists(ctx context.Context) ([]service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	items, err := getAll[todoList](ctx, c, c.baseURL+"/me/todo/lists")
	if err != nil {
		c.logger.Debug("list lists failed", logging.Operation("lists.list"), logging.Err(err))
		return []service.TaskList{}, err
	}

	result := make([]service.TaskList, 0, len(items))
	for _, l := range items {
		result = append(result, service.TaskList{ID: l.ID, Title: l.DisplayName})
	}
	return result, nil
}

// ListTasks returns the tasks of a list. A non-200 response yields an empty
// slice and an *APIError.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	items, err := getAll[todoTask](ctx, c, c.tasksURL(listID))
	if err != nil {
		c.logger.Debug("list tasks failed", logging.Operation("tasks.list"), logging.Err(err))
		return []service.Task{}, err
	}

	result := make([]service.Task, 0, len(items))
	for _, t := range items {
		result = append(result, service.Task{ID: t.ID, Title: t.Title, Status: t.Status})
	}
	return result, nil
}

// CreateTask posts a new task. Only 201 Created counts as success.
func (c *Client) CreateTask(ctx context.Context, listID, title string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	body, err := json.Marshal(todoTask{Title: title})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tasksURL(listID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return newAPIError(resp)
	}
	c.logger.Debug("task created", logging.Operation("tasks.create"), logging.Status(logging.StatusSuccess))
	return nil
}

func (c *Client) tasksURL(listID string) string {
	return c.baseURL + "/me/todo/lists/" + url.PathEscape(listID) + "/tasks"
}

// getAll fetches a collection, following @odata.nextLink.
func getAll[T any](ctx context.Context, c *Client, u string) ([]T, error) {
	var all []T
	for i := 0; u != "" && i < maxPages; i++ {
		var p page[T]
		if err := c.getJSON(ctx, u, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Value...)
		u = p.NextLink
	}
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
