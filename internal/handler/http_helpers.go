package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/locale"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseDate 解析 YYYY-MM-DD，空字符串返回 fallback
func parseDate(raw string, loc *time.Location, fallback time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	parsed, err := time.ParseInLocation(dateFormat, trimmed, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", trimmed)
	}
	return parsed, nil
}

// requestLanguage 优先使用 ?lang=，其次是 Accept-Language
func requestLanguage(c *gin.Context) string {
	return locale.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))
}
