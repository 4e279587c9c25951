package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// State 是进程级的会话状态
type State string

const (
	StateOnboarding State = "onboarding"
	StateActive     State = "active"
)

var (
	// ErrInvalidCredentials 表示保存的凭据被服务端拒绝，需要清除
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetwork 表示网络层失败，凭据保留
	ErrNetwork = errors.New("network error")
	// ErrServer 表示服务端异常，凭据保留
	ErrServer = errors.New("server error")
	// ErrNoCredentials 首次启动时的正常状态
	ErrNoCredentials = errors.New("no credentials found")
)

const (
	KeyCachedUser  = "session.user"
	KeyCredentials = "session.credentials"
)

// User 是本地缓存的用户快照
type User struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	ZodiacSign  string     `json:"zodiac_sign,omitempty"`
	PartnerID   *uint      `json:"partner_id,omitempty"`
	PartnerCode string     `json:"partner_code,omitempty"`
}

// Credentials 是重新建立会话的唯一依据
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Result 是一次启动决策的结果
// State 为 active 时 CurrentUser 一定非空；Cause 记录回退到 onboarding 的原因
type Result struct {
	State       State
	CurrentUser *User
	Cause       error
}

// AuthClient 负责用凭据换取用户信息
type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
}

// ProfileService 提供登录后的补充操作，失败只记录日志
type ProfileService interface {
	EnsureProfileExists(ctx context.Context) error
	GetPartnerCode(ctx context.Context) (string, error)
}

// LocalStore 是同步的本地键值存储，实现需要支持并发调用
type LocalStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Clear(key string) error
}

// LoadUser 读取缓存的用户，不存在时返回 nil
func LoadUser(store LocalStore) (*User, error) {
	var user User
	found, err := loadJSON(store, KeyCachedUser, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// SaveUser 写入用户快照
func SaveUser(store LocalStore, user *User) error {
	return saveJSON(store, KeyCachedUser, user)
}

// LoadCredentials 读取保存的凭据，邮箱或密码为空视为不存在
func LoadCredentials(store LocalStore) (*Credentials, error) {
	var creds Credentials
	found, err := loadJSON(store, KeyCredentials, &creds)
	if err != nil || !found {
		return nil, err
	}
	if creds.Email == "" || creds.Password == "" {
		return nil, nil
	}
	return &creds, nil
}

// SaveCredentials 写入凭据
func SaveCredentials(store LocalStore, creds Credentials) error {
	return saveJSON(store, KeyCredentials, creds)
}

func loadJSON(store LocalStore, key string, dst interface{}) (bool, error) {
	raw, found, err := store.Get(key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func saveJSON(store LocalStore, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
