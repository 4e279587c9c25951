package router

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/handler"
	"gorm.io/gorm"
)

// Config 是路由层自身的配置
type Config struct {
	SessionSecret string
	// AllowOrigins 为空时不启用跨域
	AllowOrigins []string
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg Config, opts handler.Options) *gin.Engine {
	r := gin.Default()

	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 30 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions("moodlink_session", store))

	uploadURL := normalizeURLPath(opts.UploadURL, "/static/uploads")
	opts.UploadURL = uploadURL
	if opts.UploadDir != "" {
		r.Static(uploadURL, opts.UploadDir)
		if uploadURL != "/uploads" {
			r.Static("/uploads", opts.UploadDir)
		}
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := handler.NewAPI(gdb, opts)

	group := r.Group("/api")
	{
		authGroup := group.Group("/auth")
		authGroup.POST("/signup", api.Signup)
		authGroup.POST("/login", api.Login)
		authGroup.POST("/logout", api.Logout)

		// 需要认证的路由
		auth := group.Group("")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/me", api.Me)

			auth.POST("/profile/ensure", api.EnsureProfile)
			auth.GET("/profile/partner-code", api.GetPartnerCode)
			auth.POST("/partner/link", api.LinkPartner)

			auth.GET("/moods", api.ListMoods)
			auth.POST("/moods", api.RecordMood)
			auth.GET("/moods/weekly", api.WeeklySummary)
			auth.GET("/moods/couple", api.CoupleWeek)
			auth.GET("/moods/month", api.MonthMoods)
			auth.GET("/moods/stats", api.MoodStats)
			auth.GET("/moods/day", api.DayMood)
			auth.GET("/moods/year", api.YearMoods)
			auth.PATCH("/moods/:id/enrichment", api.EnrichMood)
			auth.DELETE("/moods/:id", api.DeleteMood)

			auth.POST("/uploads/photo", api.UploadPhoto)
		}
	}

	return r
}

func normalizeURLPath(raw, fallback string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
