package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	return NewAPI(setupHandlerTestDB(t), Options{
		Engine:    mood.NewEngine(time.UTC),
		Tokens:    service.NewTokenService("test-secret", time.Hour),
		UploadDir: t.TempDir(),
		UploadURL: "/static/uploads",
	})
}

func newTestRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(sessions.Sessions("moodlink_session", cookie.NewStore([]byte("test-secret"))))

	router.POST("/api/auth/signup", api.Signup)
	router.POST("/api/auth/login", api.Login)
	router.POST("/api/auth/logout", api.Logout)

	auth := router.Group("/api")
	auth.Use(api.AuthRequired())
	auth.GET("/me", api.Me)
	auth.POST("/profile/ensure", api.EnsureProfile)
	auth.GET("/profile/partner-code", api.GetPartnerCode)
	auth.POST("/partner/link", api.LinkPartner)
	auth.GET("/moods", api.ListMoods)
	auth.POST("/moods", api.RecordMood)
	auth.PATCH("/moods/:id/enrichment", api.EnrichMood)
	auth.DELETE("/moods/:id", api.DeleteMood)
	auth.GET("/moods/weekly", api.WeeklySummary)
	auth.GET("/moods/couple", api.CoupleWeek)
	auth.GET("/moods/month", api.MonthMoods)
	auth.GET("/moods/stats", api.MoodStats)
	auth.GET("/moods/day", api.DayMood)
	auth.GET("/moods/year", api.YearMoods)
	auth.POST("/uploads/photo", api.UploadPhoto)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, target, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

// signupToken 注册用户并返回访问令牌
func signupToken(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":      email,
		"password":   "secret123",
		"name":       "Tester",
		"birth_date": "1995-08-01",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("signup expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}
	token, _ := decodeBody(t, recorder)["token"].(string)
	if token == "" {
		t.Fatal("expected token in signup response")
	}
	return token
}
