package mood

import (
	"time"

	"github.com/moodlink/internal/locale"
)

// Level 是 1-5 的心情等级，5 表示最开心。
type Level int

const (
	LevelMin Level = 1
	LevelMax Level = 5
	// NeutralLevel 在没有可用数据时作为众数的默认值
	NeutralLevel Level = 3
)

// NeutralAverage 为空集合或非法数据时的平均值兜底
const NeutralAverage = 3.0

// Valid 判断等级是否落在 1-5 区间
func (l Level) Valid() bool {
	return l >= LevelMin && l <= LevelMax
}

// Label 返回等级对应的简短描述
func (l Level) Label(language string) string {
	switch l {
	case 1:
		return locale.Pick(language, "awful", "很糟")
	case 2:
		return locale.Pick(language, "low", "低落")
	case 3:
		return locale.Pick(language, "okay", "一般")
	case 4:
		return locale.Pick(language, "good", "不错")
	case 5:
		return locale.Pick(language, "great", "很棒")
	default:
		return locale.Pick(language, "unknown", "未知")
	}
}

// Entry 是聚合引擎使用的心情记录快照，与存储层模型解耦
// Date 只关心日历日，具体时刻由 CreatedAt 记录
type Entry struct {
	ID          uint
	OwnerID     uint
	Date        time.Time
	Level       Level
	EventLabel  string
	Location    string
	PhotoURL    string
	Insight     string
	LoveMessage string
	CreatedAt   time.Time
}

// Trend 描述一段窗口内心情变化的方向
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Description 返回趋势的文字说明
func (t Trend) Description(language string) string {
	switch t {
	case TrendImproving:
		return locale.Pick(language, "Your mood has been improving", "心情在逐渐变好")
	case TrendDeclining:
		return locale.Pick(language, "Your mood has been declining", "心情有所下滑")
	default:
		return locale.Pick(language, "Your mood has been steady", "心情保持平稳")
	}
}

// WeeklySummary 是按需计算的周度汇总，不做持久化
type WeeklySummary struct {
	WeekStart        time.Time
	EntryCount       int
	AverageMood      float64
	Trend            Trend
	MostFrequentMood Level
	Insights         []string
}

// CoupleSummary 汇总双方同一周的心情
type CoupleSummary struct {
	Self       WeeklySummary
	Partner    WeeklySummary
	SyncedDays int
}
