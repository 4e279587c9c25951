package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moodlink/internal/logger"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSignInTimeout   = 15 * time.Second
	defaultFollowUpTimeout = 30 * time.Second
)

// Bootstrapper 根据本地存储和一次登录请求决定启动后的会话状态
// 登录之后的补充操作并发执行，不影响状态判定
type Bootstrapper struct {
	auth     AuthClient
	profiles ProfileService
	store    LocalStore
	log      *logger.Logger

	signInTimeout   time.Duration
	followUpTimeout time.Duration

	followUps sync.WaitGroup
	// mu 串行化对用户快照与凭据的读改写，避免补充操作在登出后写回快照
	mu sync.Mutex
}

// NewBootstrapper 构造 Bootstrapper，profiles 为空时跳过补充操作
func NewBootstrapper(auth AuthClient, profiles ProfileService, store LocalStore, log *logger.Logger) *Bootstrapper {
	if log == nil {
		log = logger.Nop()
	}
	return &Bootstrapper{
		auth:            auth,
		profiles:        profiles,
		store:           store,
		log:             log.With("component", "SessionBootstrap"),
		signInTimeout:   defaultSignInTimeout,
		followUpTimeout: defaultFollowUpTimeout,
	}
}

// WithSignInTimeout 调整登录请求的最长等待时间
func (b *Bootstrapper) WithSignInTimeout(d time.Duration) *Bootstrapper {
	if d > 0 {
		b.signInTimeout = d
	}
	return b
}

// WithFollowUpTimeout 调整补充操作的最长执行时间
func (b *Bootstrapper) WithFollowUpTimeout(d time.Duration) *Bootstrapper {
	if d > 0 {
		b.followUpTimeout = d
	}
	return b
}

// Start 异步执行 Run，结果只投递一次，随后关闭通道
func (b *Bootstrapper) Start(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- b.Run(ctx)
	}()
	return ch
}

// Run 执行启动决策，任何失败都归并为 onboarding，不向调用方返回错误
func (b *Bootstrapper) Run(ctx context.Context) Result {
	cached, err := LoadUser(b.store)
	if err != nil {
		b.log.Warn("cached user unreadable", "error", err)
	}
	if cached == nil {
		return Result{State: StateOnboarding, Cause: ErrNoCredentials}
	}

	creds, err := LoadCredentials(b.store)
	if err != nil {
		b.log.Warn("stored credentials unreadable", "error", err)
	}
	if creds == nil {
		b.log.Info("cached user without credentials", "user_id", cached.ID)
		return Result{State: StateOnboarding, Cause: ErrNoCredentials}
	}

	user, err := b.signIn(ctx, *creds)
	if err != nil {
		return b.fallback(err)
	}

	if err := b.saveSignedInUser(user); err != nil {
		b.log.Warn("refresh cached user failed", "user_id", user.ID, "error", err)
	}
	b.launchFollowUps(ctx, user)

	b.log.Info("session resumed", "user_id", user.ID)
	return Result{State: StateActive, CurrentUser: user}
}

// SignIn 处理用户在 onboarding 中主动登录，成功后保存凭据与用户快照
func (b *Bootstrapper) SignIn(ctx context.Context, creds Credentials) (Result, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return Result{State: StateOnboarding, Cause: ErrNoCredentials}, ErrNoCredentials
	}

	user, err := b.signIn(ctx, creds)
	if err != nil {
		return Result{State: StateOnboarding, Cause: err}, err
	}

	b.mu.Lock()
	err = SaveCredentials(b.store, creds)
	b.mu.Unlock()
	if err != nil {
		return Result{State: StateOnboarding, Cause: err}, err
	}
	if err := b.saveSignedInUser(user); err != nil {
		return Result{State: StateOnboarding, Cause: err}, err
	}

	b.launchFollowUps(ctx, user)
	return Result{State: StateActive, CurrentUser: user}, nil
}

// Logout 清除凭据与用户快照
func (b *Bootstrapper) Logout() (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := errors.Join(b.store.Clear(KeyCredentials), b.store.Clear(KeyCachedUser))
	if err != nil {
		b.log.Warn("clear local session failed", "error", err)
	}
	return Result{State: StateOnboarding}, err
}

// Wait 等待所有补充操作结束
func (b *Bootstrapper) Wait() {
	b.followUps.Wait()
}

type signInOutcome struct {
	user *User
	err  error
}

// signIn 在超时时间内等待登录结果，AuthClient 忽略 ctx 时同样会按时返回
func (b *Bootstrapper) signIn(ctx context.Context, creds Credentials) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, b.signInTimeout)
	defer cancel()

	done := make(chan signInOutcome, 1)
	go func() {
		user, err := b.auth.SignIn(ctx, creds.Email, creds.Password)
		done <- signInOutcome{user: user, err: err}
	}()

	select {
	case outcome := <-done:
		if outcome.err != nil {
			return nil, fmt.Errorf("sign in: %w", outcome.err)
		}
		if outcome.user == nil {
			return nil, fmt.Errorf("sign in: %w: empty user", ErrServer)
		}
		return outcome.user, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("sign in: %w", ctx.Err())
	}
}

// saveSignedInUser 写入登录返回的用户，服务端未返回绑定码时沿用本地缓存的绑定码
func (b *Bootstrapper) saveSignedInUser(user *User) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if strings.TrimSpace(user.PartnerCode) == "" {
		if cached, err := LoadUser(b.store); err == nil && cached != nil && cached.ID == user.ID {
			user.PartnerCode = cached.PartnerCode
		}
	}
	return SaveUser(b.store, user)
}

func (b *Bootstrapper) fallback(err error) Result {
	if errors.Is(err, ErrInvalidCredentials) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if clearErr := b.store.Clear(KeyCredentials); clearErr != nil {
			b.log.Error("clear invalid credentials failed", "error", clearErr)
		}
		b.log.Info("stored credentials rejected, cleared", "error", err)
	} else {
		b.log.Warn("session resume failed, credentials kept", "error", err)
	}
	return Result{State: StateOnboarding, Cause: err}
}

// launchFollowUps 在独立的 context 中并发执行补充操作，调用方取消不会中断它们
func (b *Bootstrapper) launchFollowUps(ctx context.Context, user *User) {
	if b.profiles == nil {
		return
	}

	b.followUps.Add(1)
	go func() {
		defer b.followUps.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.followUpTimeout)
		defer cancel()

		var g errgroup.Group
		g.Go(func() error {
			if err := b.profiles.EnsureProfileExists(ctx); err != nil {
				b.log.Warn("ensure profile failed", "user_id", user.ID, "error", err)
			}
			return nil
		})
		if strings.TrimSpace(user.PartnerCode) == "" {
			g.Go(func() error {
				b.fetchPartnerCode(ctx, user.ID)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (b *Bootstrapper) fetchPartnerCode(ctx context.Context, userID uint) {
	code, err := b.profiles.GetPartnerCode(ctx)
	if err != nil {
		b.log.Warn("fetch partner code failed", "user_id", userID, "error", err)
		return
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cached, err := LoadUser(b.store)
	if err != nil || cached == nil || cached.ID != userID {
		b.log.Warn("skip caching partner code", "user_id", userID, "error", err)
		return
	}
	cached.PartnerCode = code
	if err := SaveUser(b.store, cached); err != nil {
		b.log.Warn("cache partner code failed", "user_id", userID, "error", err)
	}
}
