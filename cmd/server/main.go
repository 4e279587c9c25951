package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/config"
	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/handler"
	"github.com/moodlink/internal/logger"
	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/router"
	"github.com/moodlink/internal/service"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	loc, err := cfg.Location()
	if err != nil {
		appLog.Fatal("invalid timezone", "error", err)
	}

	bands, trendDelta, err := config.LoadInsights(cfg.InsightConfigPath)
	if err != nil {
		appLog.Fatal("failed to load insight config", "path", cfg.InsightConfigPath, "error", err)
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		appLog.Fatal("failed to initialize database", "path", cfg.DatabasePath, "error", err)
	}

	if err := db.EnsureUser(cfg.DemoUserEmail, cfg.DemoUserPassword, cfg.DemoUserName); err != nil {
		appLog.Fatal("failed to ensure demo user", "error", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(db.DB, router.Config{
		SessionSecret: cfg.SessionSecret,
		AllowOrigins:  cfg.AllowOrigins,
	}, handler.Options{
		Engine:    mood.NewEngine(loc).WithTrendDelta(trendDelta),
		Bands:     bands,
		Tokens:    service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Logger:    appLog,
		UploadDir: cfg.UploadDir,
		UploadURL: cfg.UploadURLPath,
	})

	appLog.Info("server starting", "addr", cfg.ListenAddr, "database", cfg.DatabasePath)
	if err := r.Run(cfg.ListenAddr); err != nil {
		appLog.Fatal("failed to run server", "error", err)
	}
}
