// Package client 是任务 API 的 HTTP 客户端。
//
// 任务列表在本地缓存，写操作成功后失效，失败的写操作不影响缓存。
// 不做重试。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskboard/internal/model"
	"taskboard/pkg/trace"
)

// Fields 请求体的字段集合，值为 nil 时编码为 JSON null
type Fields map[string]any

// APIError 非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (field %q, status %d)", e.Message, e.Field, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound 判断是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	cached []model.Task
	valid  bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tasks 返回任务列表，缓存有效时不发请求
func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	c.mu.Lock()
	if c.valid {
		out := append([]model.Task(nil), c.cached...)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	c.mu.Lock()
	c.cached = tasks
	c.valid = true
	c.mu.Unlock()

	return append([]model.Task(nil), tasks...), nil
}

func (c *Client) Task(ctx context.Context, id int) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, &task)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, fields Fields) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", fields, &task); err != nil {
		return model.Task{}, err
	}
	c.Invalidate()
	return task, nil
}

// UpdateTask 只发送 fields 中出现的字段
func (c *Client) UpdateTask(ctx context.Context, id int, fields Fields) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), fields, &task); err != nil {
		return model.Task{}, err
	}
	c.Invalidate()
	return task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate 丢弃缓存的任务列表，下次 Tasks 会重新请求
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.valid = false
	c.mu.Unlock()
}

func taskPath(id int) string {
	return "/tasks/" + strconv.Itoa(id)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// 传播 trace_id
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Field = payload.Field
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
