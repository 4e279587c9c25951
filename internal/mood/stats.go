package mood

import (
	"slices"
	"time"
)

// Stats 汇总一段日期区间内的记录情况
type Stats struct {
	RangeStart    time.Time
	RangeEnd      time.Time
	EntryCount    int
	DayCount      int
	LoggingRate   float64
	AverageMood   float64
	CurrentStreak int
	LongestStreak int
}

// StatsBetween 统计 [start, end] 内的记录天数、记录率及连续记录天数
// 同一天多条记录只算一天，当前连续天数以区间内最后一次记录为终点
func (e *Engine) StatsBetween(entries []Entry, start, end time.Time) Stats {
	from, to := e.Day(start), e.Day(end)
	stats := Stats{RangeStart: from, RangeEnd: to, AverageMood: NeutralAverage}
	if to.Before(from) {
		return stats
	}

	inRange := filterEntries(entries, func(entry Entry) bool {
		day := e.Day(entry.Date)
		return entry.Level.Valid() && !day.Before(from) && !day.After(to)
	})
	days := e.latestPerDay(inRange)
	slices.SortFunc(days, func(a, b Entry) int {
		return a.Date.Compare(b.Date)
	})

	stats.EntryCount = len(days)
	stats.DayCount = calendarDays(from, to)
	if stats.DayCount > 0 {
		stats.LoggingRate = float64(stats.EntryCount) / float64(stats.DayCount)
	}
	stats.AverageMood = AverageMood(days)
	stats.CurrentStreak, stats.LongestStreak = e.streaks(days)
	return stats
}

// streaks 要求 days 已按日期升序且每天一条
func (e *Engine) streaks(days []Entry) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	longest = 1
	current = 1
	for i := 1; i < len(days); i++ {
		prev := e.Day(days[i-1].Date)
		if e.DayKey(prev.AddDate(0, 0, 1)) == e.DayKey(days[i].Date) {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return current, longest
}

// calendarDays 按日历日计数，不受夏令时影响
func calendarDays(from, to time.Time) int {
	count := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		count++
	}
	return count
}
