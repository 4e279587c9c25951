package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/config"
	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/handler"
	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/router"
	"github.com/moodlink/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:cli-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	// 登录后的补充操作会并发写库，共享内存库只用一个连接
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if _, err := service.NewUserService(gdb).Register(service.RegisterInput{Email: "mia@example.com", Password: "secret123", Name: "Mia"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	server := httptest.NewServer(router.SetupRouter(gdb, router.Config{SessionSecret: "test-secret"}, handler.Options{
		Engine: mood.NewEngine(time.UTC),
		Tokens: service.NewTokenService("test-secret", time.Hour),
	}))
	t.Cleanup(func() {
		server.Close()
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return server
}

// run 每次都新建 App，与真实的多次进程调用一致
func run(t *testing.T, cfg config.ClientConfig, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewApp(cfg, nil, time.UTC).Execute(context.Background(), args, &out)
	return out.String(), err
}

func TestZodiacCommand(t *testing.T) {
	cfg := config.ClientConfig{Language: "zh"}

	out, err := run(t, cfg, "zodiac", "1995-08-01")
	if err != nil {
		t.Fatalf("zodiac returned error: %v", err)
	}
	if strings.TrimSpace(out) != "狮子座" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, cfg, "zodiac", "08/01/1995"); err == nil {
		t.Fatal("expected invalid date to fail")
	}
}

func TestSessionLifecycle(t *testing.T) {
	server := newTestServer(t)
	cfg := config.ClientConfig{
		BaseURL:       server.URL,
		StorePath:     filepath.Join(t.TempDir(), "client.db"),
		SignInTimeout: 5 * time.Second,
		Language:      "en",
	}

	out, err := run(t, cfg, "bootstrap")
	if err != nil || !strings.Contains(out, "State: onboarding") {
		t.Fatalf("expected onboarding before login, got %q err=%v", out, err)
	}

	if _, err := run(t, cfg, "login", "--email", "mia@example.com", "--password", "nope"); err == nil {
		t.Fatal("expected wrong password to fail")
	}

	out, err = run(t, cfg, "login", "--email", "mia@example.com", "--password", "secret123")
	if err != nil || !strings.Contains(out, "Signed in as Mia") {
		t.Fatalf("unexpected login output %q err=%v", out, err)
	}

	for i, level := range []string{"1", "2", "4", "5"} {
		date := time.Date(2024, 5, 6+i, 0, 0, 0, 0, time.UTC).Format(dateFormat)
		if _, err := run(t, cfg, "record", level, "--date", date); err != nil {
			t.Fatalf("record %s returned error: %v", date, err)
		}
	}
	if _, err := run(t, cfg, "record", "9"); err == nil {
		t.Fatal("expected invalid level to fail")
	}

	out, err = run(t, cfg, "summary", "--week-start", "2024-05-06")
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}
	for _, want := range []string{"Entries: 4", "Average: 3.00", "Trend: improving"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary output:\n%s", want, out)
		}
	}

	out, err = run(t, cfg, "bootstrap")
	if err != nil || !strings.Contains(out, "State: active") {
		t.Fatalf("expected active session, got %q err=%v", out, err)
	}

	if _, err := run(t, cfg, "logout"); err != nil {
		t.Fatalf("logout returned error: %v", err)
	}
	out, _ = run(t, cfg, "bootstrap")
	if !strings.Contains(out, "State: onboarding") {
		t.Fatalf("expected onboarding after logout, got %q", out)
	}
}

func TestMondayOf(t *testing.T) {
	sunday := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)
	if got := mondayOf(sunday); got.Day() != 6 {
		t.Fatalf("expected Monday May 6, got %v", got)
	}
	monday := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	if got := mondayOf(monday); !got.Equal(monday) {
		t.Fatalf("expected same day, got %v", got)
	}
}
