package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	JWTSecret         string
	TokenTTL          time.Duration
	GinMode           string
	UploadDir         string
	UploadURLPath     string
	LogMode           string
	AllowOrigins      []string
	InsightConfigPath string
	Timezone          string
	DemoUserEmail     string
	DemoUserPassword  string
	DemoUserName      string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "moodlink.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "moodlink-dev-secret"
	}

	// 未单独配置时沿用 session 密钥
	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = sessionSecret
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	logMode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if logMode == "" {
		logMode = "prod"
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      databasePath,
		SessionSecret:     sessionSecret,
		JWTSecret:         jwtSecret,
		TokenTTL:          durationEnv("TOKEN_TTL", 7*24*time.Hour),
		GinMode:           ginMode,
		UploadDir:         uploadDir,
		UploadURLPath:     uploadURLPath,
		LogMode:           logMode,
		AllowOrigins:      splitList(os.Getenv("CORS_ORIGINS")),
		InsightConfigPath: strings.TrimSpace(os.Getenv("INSIGHT_CONFIG")),
		Timezone:          strings.TrimSpace(os.Getenv("MOOD_TIMEZONE")),
		DemoUserEmail:     strings.TrimSpace(os.Getenv("DEMO_USER_EMAIL")),
		DemoUserPassword:  strings.TrimSpace(os.Getenv("DEMO_USER_PASSWORD")),
		DemoUserName:      strings.TrimSpace(os.Getenv("DEMO_USER_NAME")),
	}
}

// Location 解析 Timezone，为空时使用本地时区
func (c AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ClientConfig 是命令行客户端的配置
type ClientConfig struct {
	BaseURL       string
	StorePath     string
	SignInTimeout time.Duration
	Language      string
	LogMode       string
}

// LoadClient 读取 MOODLINK_* 环境变量
func LoadClient() ClientConfig {
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("MOODLINK_SERVER")), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	storePath := strings.TrimSpace(os.Getenv("MOODLINK_STORE"))
	if storePath == "" {
		storePath = defaultStorePath()
	}

	logMode := strings.TrimSpace(os.Getenv("MOODLINK_LOG_MODE"))
	if logMode == "" {
		logMode = "quiet"
	}

	return ClientConfig{
		BaseURL:       baseURL,
		StorePath:     storePath,
		SignInTimeout: durationEnv("MOODLINK_SIGNIN_TIMEOUT", 15*time.Second),
		Language:      strings.TrimSpace(os.Getenv("MOODLINK_LANG")),
		LogMode:       logMode,
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "moodlink-client.db"
	}
	return dir + string(os.PathSeparator) + "moodlink" + string(os.PathSeparator) + "client.db"
}

// splitList 解析逗号分隔的列表，忽略空项
func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// durationEnv 支持 "90s" 这样的写法，也接受纯数字秒数
func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
