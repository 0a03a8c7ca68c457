// Package leadsapi 是外部 leads REST API 的客户端。
// 本仓库不持有任何 lead 数据，所有读写都经由这里转发到后端。
package leadsapi

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
	"time"

	"go.uber.org/zap"

	"satark-portal/internal/platform/logging"
)

// DefaultBaseURL 是本地开发时后端的默认地址。
const DefaultBaseURL = "http://localhost:5000"

const maxBodyBytes = 8 << 20

var (
	// ErrUnauthorized 对应 401/403：调用方应清除凭据并跳转登录。
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound 对应 404。
	ErrNotFound = errors.New("not found")
)

// APIError 是后端返回的非 2xx 响应。
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Unwrap 让 errors.Is(err, ErrUnauthorized/ErrNotFound) 可以直接判断。
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Session 是一次请求携带的警员凭据。零值表示匿名（市民）调用。
type Session struct {
	ID    string
	Token string
}

// Authenticated 是否携带 bearer token。
func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.Token) != ""
}

// Client 封装对后端的 HTTP 调用。
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger

	// OnUnauthorized 在带凭据的调用收到 401/403 时被调用一次（统一的“登出”入口）。
	OnUnauthorized func(ctx context.Context, s Session)
}

// New 创建客户端；baseURL 为空时使用 DefaultBaseURL。
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logging.OrNop(logger),
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) logger() *zap.Logger {
	return logging.OrNop(c.Logger)
}

func (c *Client) endpoint(path string, q url.Values) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u := base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// doJSON 发送 JSON 请求（body 为 nil 时不带请求体），并把响应解码进 out（out 为 nil 时丢弃）。
func (c *Client) doJSON(ctx context.Context, s Session, method, path string, q url.Values, body any, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, s, out)
}

func (c *Client) do(req *http.Request, s Session, out any) error {
	req.Header.Set("Accept", "application/json")
	if s.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(s.Token))
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger().Warn("api transport error",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp, b)}
		if errors.Is(apiErr, ErrUnauthorized) && s.Authenticated() && c.OnUnauthorized != nil {
			c.OnUnauthorized(req.Context(), s)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// errorMessage 优先取后端 {"error": "..."}，否则回落到状态文本。
func errorMessage(resp *http.Response, body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if m := strings.TrimSpace(e.Error); m != "" {
			return m
		}
		if m := strings.TrimSpace(e.Message); m != "" {
			return m
		}
	}
	if txt := strings.TrimSpace(string(body)); txt != "" && len(txt) < 200 && !strings.HasPrefix(txt, "<") {
		return txt
	}
	return http.StatusText(resp.StatusCode)
}
