package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/service"
)

const defaultListDays = 30

type moodPayload struct {
	Date       string `json:"date"`
	MoodLevel  int    `json:"mood_level"`
	EventLabel string `json:"event_label"`
	Location   string `json:"location"`
	PhotoURL   string `json:"photo_url"`
}

type enrichmentPayload struct {
	Insight     *string `json:"insight"`
	LoveMessage *string `json:"love_message"`
}

// RecordMood 记录当天（或指定日期）的心情
func (a *API) RecordMood(c *gin.Context) {
	var payload moodPayload
	if !bindJSON(c, &payload, "心情数据格式错误") {
		return
	}

	engine := a.moods.Engine()
	date, err := parseDate(payload.Date, engine.Location(), time.Now().In(engine.Location()))
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	entry, err := a.moods.Record(currentUserID(c), service.MoodEntryInput{
		Date:       date,
		Level:      payload.MoodLevel,
		EventLabel: payload.EventLabel,
		Location:   payload.Location,
		PhotoURL:   payload.PhotoURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMoodInvalidLevel):
			respondError(c, http.StatusBadRequest, "心情等级需在 1-5 之间")
		case errors.Is(err, service.ErrMoodEntryExists):
			respondError(c, http.StatusConflict, "今天已经记录过心情")
		default:
			a.log.Error("record mood failed", "user_id", currentUserID(c), "error", err)
			respondError(c, http.StatusInternalServerError, "记录心情失败")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": moodEntryToPayload(*entry)})
}

// EnrichMood 补充洞察或情话
func (a *API) EnrichMood(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	var payload enrichmentPayload
	if !bindJSON(c, &payload, "补充内容格式错误") {
		return
	}

	entry, err := a.moods.Enrich(currentUserID(c), id, service.MoodEnrichmentInput{
		Insight:     payload.Insight,
		LoveMessage: payload.LoveMessage,
	})
	if err != nil {
		if errors.Is(err, service.ErrMoodEntryNotFound) {
			respondError(c, http.StatusNotFound, "记录不存在")
			return
		}
		a.log.Error("enrich mood failed", "entry_id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "更新记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": moodEntryToPayload(*entry)})
}

// DeleteMood 删除一条记录
func (a *API) DeleteMood(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	if err := a.moods.Delete(currentUserID(c), id); err != nil {
		if errors.Is(err, service.ErrMoodEntryNotFound) {
			respondError(c, http.StatusNotFound, "记录不存在")
			return
		}
		a.log.Error("delete mood failed", "entry_id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "删除记录失败")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMoods 返回 [start, end] 内的记录，默认最近 30 天
func (a *API) ListMoods(c *gin.Context) {
	start, end, ok := a.rangeQuery(c)
	if !ok {
		return
	}

	rows, err := a.moods.ListBetween(currentUserID(c), start, end)
	if err != nil {
		a.log.Error("list moods failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "获取心情记录失败")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		items = append(items, moodEntryToPayload(row))
	}
	c.JSON(http.StatusOK, gin.H{
		"range":   gin.H{"start": start.Format(dateFormat), "end": end.Format(dateFormat)},
		"entries": items,
	})
}

// MoodStats 返回区间内的记录率与连续记录天数
func (a *API) MoodStats(c *gin.Context) {
	start, end, ok := a.rangeQuery(c)
	if !ok {
		return
	}

	stats, err := a.moods.Stats(currentUserID(c), start, end)
	if err != nil {
		a.log.Error("mood stats failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "获取统计失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"range":          gin.H{"start": stats.RangeStart.Format(dateFormat), "end": stats.RangeEnd.Format(dateFormat)},
		"entry_count":    stats.EntryCount,
		"day_count":      stats.DayCount,
		"logging_rate":   stats.LoggingRate,
		"average_mood":   stats.AverageMood,
		"current_streak": stats.CurrentStreak,
		"longest_streak": stats.LongestStreak,
	})
}

// MonthMoods 返回 ?month=YYYY-MM 所在月的记录
func (a *API) MonthMoods(c *gin.Context) {
	loc := a.moods.Engine().Location()
	ref := time.Now().In(loc)
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01", raw, loc)
		if err != nil {
			respondError(c, http.StatusBadRequest, "月份格式应为 YYYY-MM")
			return
		}
		ref = parsed
	}

	entries, err := a.moods.Month(currentUserID(c), ref)
	if err != nil {
		a.log.Error("month moods failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "获取月度记录失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"id":         entry.ID,
			"date":       entry.Date.Format(dateFormat),
			"mood_level": int(entry.Level),
		})
	}
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	c.JSON(http.StatusOK, gin.H{
		"month":   ref.Format("2006-01"),
		"average": mood.AverageMood(entries),
		"days":    a.moods.Engine().DailyLevels(entries, first, first.AddDate(0, 1, -1)),
		"entries": items,
	})
}

// DayMood 返回 ?date= 当天的记录，默认今天
func (a *API) DayMood(c *gin.Context) {
	loc := a.moods.Engine().Location()
	date, err := parseDate(c.Query("date"), loc, time.Now().In(loc))
	if err != nil {
		respondError(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	entry, err := a.moods.Day(currentUserID(c), date)
	if err != nil {
		if errors.Is(err, service.ErrMoodEntryNotFound) {
			respondError(c, http.StatusNotFound, "当天没有心情记录")
			return
		}
		a.log.Error("day mood failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "获取心情记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": moodEntryToPayload(*entry)})
}

// YearMoods 返回 ?year= 的年度概览，按月给出平均心情
func (a *API) YearMoods(c *gin.Context) {
	loc := a.moods.Engine().Location()
	ref := time.Now().In(loc)
	if raw := c.Query("year"); raw != "" {
		parsed, err := time.ParseInLocation("2006", raw, loc)
		if err != nil {
			respondError(c, http.StatusBadRequest, "年份格式应为 YYYY")
			return
		}
		ref = parsed
	}

	entries, err := a.moods.Year(currentUserID(c), ref)
	if err != nil {
		a.log.Error("year moods failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "获取年度记录失败")
		return
	}

	engine := a.moods.Engine()
	months := gin.H{}
	for m := time.January; m <= time.December; m++ {
		bucket := engine.BucketByMonth(entries, time.Date(ref.Year(), m, 1, 0, 0, 0, 0, loc))
		if len(bucket) == 0 {
			continue
		}
		months[fmt.Sprintf("%04d-%02d", ref.Year(), int(m))] = gin.H{
			"entry_count": len(bucket),
			"average":     mood.AverageMood(bucket),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"year":               ref.Year(),
		"entry_count":        len(entries),
		"average":            mood.AverageMood(entries),
		"most_frequent_mood": int(mood.MostFrequentMood(entries)),
		"months":             months,
	})
}

// WeeklySummary 返回 ?week_start= 起一周的汇总，默认本周一
func (a *API) WeeklySummary(c *gin.Context) {
	weekStart, ok := a.weekStartQuery(c)
	if !ok {
		return
	}

	summary, err := a.moods.WeeklySummary(currentUserID(c), weekStart, requestLanguage(c))
	if err != nil {
		a.log.Error("weekly summary failed", "user_id", currentUserID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "生成周报失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summaryPayload(summary)})
}

// CoupleWeek 返回双方同一周的汇总
func (a *API) CoupleWeek(c *gin.Context) {
	weekStart, ok := a.weekStartQuery(c)
	if !ok {
		return
	}
	user, ok := a.currentUser(c)
	if !ok {
		return
	}

	couple, err := a.moods.CoupleWeek(user, weekStart, requestLanguage(c))
	if err != nil {
		if errors.Is(err, service.ErrPartnerNotLinked) {
			respondError(c, http.StatusConflict, "尚未绑定伴侣")
			return
		}
		a.log.Error("couple week failed", "user_id", user.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "生成双人周报失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"self":        summaryPayload(couple.Self),
		"partner":     summaryPayload(couple.Partner),
		"synced_days": couple.SyncedDays,
	})
}

// rangeQuery 解析 ?start=&end=，缺省为截至今天的最近 30 天
func (a *API) rangeQuery(c *gin.Context) (time.Time, time.Time, bool) {
	loc := a.moods.Engine().Location()
	today := time.Now().In(loc)

	end, err := parseDate(c.Query("end"), loc, today)
	if err != nil {
		respondError(c, http.StatusBadRequest, "结束日期格式错误")
		return time.Time{}, time.Time{}, false
	}
	start, err := parseDate(c.Query("start"), loc, end.AddDate(0, 0, -(defaultListDays-1)))
	if err != nil {
		respondError(c, http.StatusBadRequest, "开始日期格式错误")
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		respondError(c, http.StatusBadRequest, "结束日期不能早于开始日期")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (a *API) weekStartQuery(c *gin.Context) (time.Time, bool) {
	loc := a.moods.Engine().Location()
	weekStart, err := parseDate(c.Query("week_start"), loc, startOfWeek(time.Now().In(loc)))
	if err != nil {
		respondError(c, http.StatusBadRequest, "week_start 格式应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return weekStart, true
}

// startOfWeek 以周一作为一周的开始
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

func moodEntryToPayload(entry db.MoodEntry) gin.H {
	payload := gin.H{
		"id":           entry.ID,
		"date":         entry.EntryDate.Format(dateFormat),
		"mood_level":   entry.MoodLevel,
		"event_label":  entry.EventLabel,
		"location":     entry.Location,
		"photo_url":    entry.PhotoURL,
		"insight":      entry.Insight,
		"love_message": entry.LoveMessage,
		"created_at":   entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if entry.LoveMessage != "" {
		payload["love_message_html"] = service.RenderMessage(entry.LoveMessage)
	}
	return payload
}

func summaryPayload(summary mood.WeeklySummary) gin.H {
	return gin.H{
		"week_start":         summary.WeekStart.Format(dateFormat),
		"entry_count":        summary.EntryCount,
		"average_mood":       summary.AverageMood,
		"trend":              string(summary.Trend),
		"most_frequent_mood": int(summary.MostFrequentMood),
		"insights":           summary.Insights,
	}
}
