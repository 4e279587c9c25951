package config

import (
	"fmt"
	"os"

	"github.com/moodlink/internal/mood"
	"gopkg.in/yaml.v3"
)

// insightFile 对应洞察配置文件，未出现的字段沿用默认值
type insightFile struct {
	TrendDelta float64           `yaml:"trend_delta"`
	Bands      mood.InsightBands `yaml:"bands"`
}

// LoadInsights 读取 YAML 洞察配置，path 为空时返回默认分档
func LoadInsights(path string) (mood.InsightBands, float64, error) {
	file := insightFile{
		TrendDelta: mood.DefaultTrendDelta,
		Bands:      mood.DefaultInsightBands(),
	}
	if path == "" {
		return file.Bands, file.TrendDelta, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return mood.InsightBands{}, 0, fmt.Errorf("read insight config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return mood.InsightBands{}, 0, fmt.Errorf("parse insight config: %w", err)
	}
	if err := file.Bands.Validate(); err != nil {
		return mood.InsightBands{}, 0, err
	}
	if file.TrendDelta <= 0 {
		return mood.InsightBands{}, 0, fmt.Errorf("%w: trend_delta must be positive", mood.ErrInvalidInsightBands)
	}
	return file.Bands, file.TrendDelta, nil
}
