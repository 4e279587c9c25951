package mood

import (
	"errors"
	"fmt"
	"math"

	"github.com/moodlink/internal/locale"
)

// ErrInvalidInsightBands 表示区间配置不合法
var ErrInvalidInsightBands = errors.New("invalid insight bands")

// InsightSource 根据周度汇总生成有序的文字观察
type InsightSource interface {
	Insights(summary WeeklySummary) []string
}

// Text 保存一条中英文文案
type Text struct {
	English string `yaml:"en"`
	Chinese string `yaml:"zh"`
}

// In 返回指定语言的文案
func (t Text) In(language string) string {
	return locale.Pick(language, t.English, t.Chinese)
}

// InsightBands 定义平均心情的分档及文案
// 平均值 < Low 为低档，> High 为高档，其余为中档
type InsightBands struct {
	Low       float64 `yaml:"low"`
	High      float64 `yaml:"high"`
	LowText   Text    `yaml:"low_text"`
	MidText   Text    `yaml:"mid_text"`
	HighText  Text    `yaml:"high_text"`
	EmptyText Text    `yaml:"empty_text"`
	// FrequentText 的 %s 会替换为最常见心情的描述
	FrequentText Text `yaml:"frequent_text"`
}

// DefaultInsightBands 返回默认的 3.0 / 4.0 分档
func DefaultInsightBands() InsightBands {
	return InsightBands{
		Low:  3.0,
		High: 4.0,
		LowText: Text{
			English: "It has been a tough week. Reach out to your partner and take it easy.",
			Chinese: "这周有些辛苦，记得和另一半多聊聊，好好休息。",
		},
		MidText: Text{
			English: "A balanced week. Small moments together can lift it further.",
			Chinese: "这周总体平稳，一起创造些小惊喜吧。",
		},
		HighText: Text{
			English: "A wonderful week! Keep sharing the good moments.",
			Chinese: "这周状态很棒，继续分享美好的瞬间吧！",
		},
		EmptyText: Text{
			English: "No moods logged this week yet.",
			Chinese: "这周还没有记录心情。",
		},
		FrequentText: Text{
			English: "Most days felt %s.",
			Chinese: "大部分日子感觉%s。",
		},
	}
}

// Validate 校验分档阈值
func (b InsightBands) Validate() error {
	if math.IsNaN(b.Low) || math.IsNaN(b.High) || math.IsInf(b.Low, 0) || math.IsInf(b.High, 0) {
		return fmt.Errorf("%w: thresholds must be finite", ErrInvalidInsightBands)
	}
	if b.Low > b.High {
		return fmt.Errorf("%w: low %.2f above high %.2f", ErrInvalidInsightBands, b.Low, b.High)
	}
	return nil
}

// Band 返回平均值所在的分档文案
func (b InsightBands) Band(average float64) Text {
	switch {
	case average < b.Low:
		return b.LowText
	case average > b.High:
		return b.HighText
	default:
		return b.MidText
	}
}

// BandInsights 是基于分档配置的 InsightSource 实现
type BandInsights struct {
	Bands    InsightBands
	Language string
}

// NewBandInsights 构造指定语言的分档文案生成器
func NewBandInsights(bands InsightBands, language string) BandInsights {
	return BandInsights{Bands: bands, Language: language}
}

// Insights 依次输出分档文案、趋势说明与最常见心情
func (b BandInsights) Insights(summary WeeklySummary) []string {
	if summary.EntryCount == 0 {
		return []string{b.Bands.EmptyText.In(b.Language)}
	}

	lines := []string{
		b.Bands.Band(summary.AverageMood).In(b.Language),
		summary.Trend.Description(b.Language),
	}

	if format := b.Bands.FrequentText.In(b.Language); format != "" {
		lines = append(lines, fmt.Sprintf(format, summary.MostFrequentMood.Label(b.Language)))
	}
	return lines
}
