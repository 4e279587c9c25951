package client

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
	"time"

	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/session"
)

const dateFormat = "2006-01-02"

// ErrNotSignedIn 在未取得访问令牌时调用需要认证的接口
var ErrNotSignedIn = errors.New("not signed in")

// APIError 是服务端返回的非 401、非 5xx 错误
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client 实现 session.AuthClient 与 session.ProfileService
type Client struct {
	baseURL string
	http    httpDoer

	mu    sync.RWMutex
	token string
}

var (
	_ session.AuthClient     = (*Client)(nil)
	_ session.ProfileService = (*Client)(nil)
)

// New 构造指向 baseURL 的客户端
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// SetHTTPClient 替换底层 HTTP 客户端，传 nil 恢复默认
func (c *Client) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 20 * time.Second}
		return
	}
	c.http = client
}

// Token 返回当前访问令牌
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type loginResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// SignIn 使用邮箱密码登录，成功后记住访问令牌
func (c *Client) SignIn(ctx context.Context, email, password string) (*session.User, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, false, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User.ID == 0 {
		return nil, fmt.Errorf("%w: incomplete login response", session.ErrServer)
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	user := resp.User
	return &user, nil
}

// EnsureProfileExists 让服务端补全资料
func (c *Client) EnsureProfileExists(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/profile/ensure", nil, true, nil)
}

// GetPartnerCode 获取绑定码
func (c *Client) GetPartnerCode(ctx context.Context) (string, error) {
	var resp struct {
		PartnerCode string `json:"partner_code"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile/partner-code", nil, true, &resp); err != nil {
		return "", err
	}
	return resp.PartnerCode, nil
}

type entryPayload struct {
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	MoodLevel   int    `json:"mood_level"`
	EventLabel  string `json:"event_label"`
	Location    string `json:"location"`
	PhotoURL    string `json:"photo_url"`
	Insight     string `json:"insight"`
	LoveMessage string `json:"love_message"`
	CreatedAt   string `json:"created_at"`
}

// Moods 拉取 [start, end] 内的记录，日期按 loc 解析
func (c *Client) Moods(ctx context.Context, start, end time.Time, loc *time.Location) ([]mood.Entry, error) {
	if loc == nil {
		loc = time.Local
	}
	query := url.Values{}
	query.Set("start", start.Format(dateFormat))
	query.Set("end", end.Format(dateFormat))

	var resp struct {
		Entries []entryPayload `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/moods?"+query.Encode(), nil, true, &resp); err != nil {
		return nil, err
	}

	entries := make([]mood.Entry, 0, len(resp.Entries))
	for _, item := range resp.Entries {
		entry, err := item.toEntry(loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", session.ErrServer, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RecordMood 记录某天的心情
func (c *Client) RecordMood(ctx context.Context, date time.Time, level mood.Level, label string) (mood.Entry, error) {
	body := map[string]any{
		"date":        date.Format(dateFormat),
		"mood_level":  int(level),
		"event_label": label,
	}
	var resp struct {
		Entry entryPayload `json:"entry"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/moods", body, true, &resp); err != nil {
		return mood.Entry{}, err
	}
	return resp.Entry.toEntry(date.Location())
}

func (p entryPayload) toEntry(loc *time.Location) (mood.Entry, error) {
	date, err := time.ParseInLocation(dateFormat, p.Date, loc)
	if err != nil {
		return mood.Entry{}, fmt.Errorf("parse entry date %q: %w", p.Date, err)
	}
	var createdAt time.Time
	if p.CreatedAt != "" {
		if createdAt, err = time.Parse(time.RFC3339Nano, p.CreatedAt); err != nil {
			return mood.Entry{}, fmt.Errorf("parse created_at %q: %w", p.CreatedAt, err)
		}
	}
	return mood.Entry{
		ID:          p.ID,
		Date:        date,
		Level:       mood.Level(p.MoodLevel),
		EventLabel:  p.EventLabel,
		Location:    p.Location,
		PhotoURL:    p.PhotoURL,
		Insight:     p.Insight,
		LoveMessage: p.LoveMessage,
		CreatedAt:   createdAt,
	}, nil
}

// do 发送请求并把失败归类为 session 包定义的错误
func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotSignedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %v", session.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", session.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", session.ErrInvalidCredentials, errorMessage(respBody))
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", session.ErrServer, resp.StatusCode, errorMessage(respBody))
	case resp.StatusCode >= http.StatusBadRequest:
		return &APIError{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", session.ErrServer, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
