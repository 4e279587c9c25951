package mood

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// DefaultTrendDelta 为判定上升/下降所需的最小均值差
const DefaultTrendDelta = 0.5

const dayKeyFormat = "2006-01-02"

// Engine 负责心情记录的聚合计算
// 引擎本身不保存任何记录，所有方法只依赖入参与日历配置，可在任意 goroutine 中并发调用
type Engine struct {
	loc        *time.Location
	trendDelta float64
}

// NewEngine 构造 Engine，loc 为空时使用 time.Local
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc, trendDelta: DefaultTrendDelta}
}

// WithTrendDelta 返回使用指定阈值的新引擎，非法值保持原阈值
func (e *Engine) WithTrendDelta(delta float64) *Engine {
	if delta <= 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return e
	}
	clone := *e
	clone.trendDelta = delta
	return &clone
}

// Location 返回引擎使用的日历时区
func (e *Engine) Location() *time.Location {
	return e.loc
}

// TrendDelta 返回当前的趋势阈值
func (e *Engine) TrendDelta() float64 {
	return e.trendDelta
}

// Day 将时间归一化到引擎时区的当日零点
func (e *Engine) Day(t time.Time) time.Time {
	local := t.In(e.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)
}

// DayKey 返回 2006-01-02 格式的日历日
func (e *Engine) DayKey(t time.Time) string {
	return t.In(e.loc).Format(dayKeyFormat)
}

// MoodForDate 返回与 date 同一日历日的记录
// 同一天存在多条时取 CreatedAt 最新的一条，时间相同再比较 ID
func (e *Engine) MoodForDate(entries []Entry, date time.Time) (Entry, bool) {
	target := e.DayKey(date)

	var (
		found Entry
		ok    bool
	)
	for _, entry := range entries {
		if e.DayKey(entry.Date) != target {
			continue
		}
		if !ok || isNewer(entry, found) {
			found = entry
			ok = true
		}
	}
	return found, ok
}

// DailyLevels 返回 [start, end] 区间内每天的心情等级，用于日历展示
func (e *Engine) DailyLevels(entries []Entry, start, end time.Time) map[string]Level {
	from := e.Day(start)
	to := e.Day(end)

	result := make(map[string]Level)
	for _, entry := range e.latestPerDay(entries) {
		day := e.Day(entry.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		result[e.DayKey(day)] = entry.Level
	}
	return result
}

// AverageMood 计算有效等级的算术平均值
// 空集合、没有有效等级或出现非有限值时返回 NeutralAverage
func AverageMood(entries []Entry) float64 {
	sum := 0.0
	count := 0
	for _, entry := range entries {
		if !entry.Level.Valid() {
			continue
		}
		sum += float64(entry.Level)
		count++
	}
	return safeMean(sum, count)
}

// AverageMood 等价于包级 AverageMood
func (e *Engine) AverageMood(entries []Entry) float64 {
	return AverageMood(entries)
}

// Trend 比较窗口前后两半的均值
// 有效记录少于 2 条时为 stable；奇数长度时忽略正中间的一条
func (e *Engine) Trend(window []Entry) Trend {
	ordered := sortedValid(window)
	if len(ordered) < 2 {
		return TrendStable
	}

	half := len(ordered) / 2
	earlier := AverageMood(ordered[:half])
	later := AverageMood(ordered[len(ordered)-half:])

	diff := later - earlier
	switch {
	case diff >= e.trendDelta:
		return TrendImproving
	case -diff >= e.trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// MostFrequentMood 返回出现次数最多的等级，次数相同时取更高的等级
func MostFrequentMood(entries []Entry) Level {
	var counts [LevelMax + 1]int
	for _, entry := range entries {
		if entry.Level.Valid() {
			counts[entry.Level]++
		}
	}

	best := NeutralLevel
	bestCount := 0
	for level := LevelMax; level >= LevelMin; level-- {
		if counts[level] > bestCount {
			best = level
			bestCount = counts[level]
		}
	}
	return best
}

// MostFrequentMood 等价于包级 MostFrequentMood
func (e *Engine) MostFrequentMood(entries []Entry) Level {
	return MostFrequentMood(entries)
}

// BucketByMonth 过滤出与 ref 同年同月的记录
func (e *Engine) BucketByMonth(entries []Entry, ref time.Time) []Entry {
	year, month, _ := ref.In(e.loc).Date()
	return filterEntries(entries, func(entry Entry) bool {
		y, m, _ := entry.Date.In(e.loc).Date()
		return y == year && m == month
	})
}

// BucketByYear 过滤出与 ref 同年的记录
func (e *Engine) BucketByYear(entries []Entry, ref time.Time) []Entry {
	year := ref.In(e.loc).Year()
	return filterEntries(entries, func(entry Entry) bool {
		return entry.Date.In(e.loc).Year() == year
	})
}

// BuildWeeklySummary 汇总 weekStart 起 7 个日历日内的记录
// 同一天的重复记录只保留最新一条，insights 为空时不生成文字
func (e *Engine) BuildWeeklySummary(entries []Entry, weekStart time.Time, insights InsightSource) WeeklySummary {
	week := e.weekEntries(entries, weekStart)

	summary := WeeklySummary{
		WeekStart:        e.Day(weekStart),
		EntryCount:       len(week),
		AverageMood:      AverageMood(week),
		Trend:            e.Trend(week),
		MostFrequentMood: MostFrequentMood(week),
		Insights:         []string{},
	}

	if insights != nil {
		if lines := insights.Insights(summary); lines != nil {
			summary.Insights = lines
		}
	}
	return summary
}

// CoupleWeek 同时计算双方的周度汇总，并统计两人同日同等级的天数
func (e *Engine) CoupleWeek(self, partner []Entry, weekStart time.Time, insights InsightSource) CoupleSummary {
	result := CoupleSummary{
		Self:    e.BuildWeeklySummary(self, weekStart, insights),
		Partner: e.BuildWeeklySummary(partner, weekStart, insights),
	}

	partnerDays := make(map[string]Level)
	for _, entry := range e.weekEntries(partner, weekStart) {
		partnerDays[e.DayKey(entry.Date)] = entry.Level
	}
	for _, entry := range e.weekEntries(self, weekStart) {
		if level, ok := partnerDays[e.DayKey(entry.Date)]; ok && level == entry.Level {
			result.SyncedDays++
		}
	}
	return result
}

func (e *Engine) weekEntries(entries []Entry, weekStart time.Time) []Entry {
	start := e.Day(weekStart)
	end := start.AddDate(0, 0, 7)

	inWeek := filterEntries(entries, func(entry Entry) bool {
		day := e.Day(entry.Date)
		return !day.Before(start) && day.Before(end)
	})

	week := e.latestPerDay(inWeek)
	slices.SortFunc(week, func(a, b Entry) int {
		return a.Date.Compare(b.Date)
	})
	return week
}

func (e *Engine) latestPerDay(entries []Entry) []Entry {
	byDay := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		key := e.DayKey(entry.Date)
		if existing, ok := byDay[key]; !ok || isNewer(entry, existing) {
			byDay[key] = entry
		}
	}

	result := make([]Entry, 0, len(byDay))
	for _, entry := range byDay {
		result = append(result, entry)
	}
	return result
}

func isNewer(a, b Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortedValid(entries []Entry) []Entry {
	valid := filterEntries(entries, func(entry Entry) bool {
		return entry.Level.Valid()
	})
	slices.SortStableFunc(valid, func(a, b Entry) int {
		if diff := a.Date.Compare(b.Date); diff != 0 {
			return diff
		}
		return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	})
	return valid
}

func filterEntries(entries []Entry, keep func(Entry) bool) []Entry {
	result := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if keep(entry) {
			result = append(result, entry)
		}
	}
	return result
}

func safeMean(sum float64, count int) float64 {
	if count == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return NeutralAverage
	}
	avg := sum / float64(count)
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return NeutralAverage
	}
	return avg
}
