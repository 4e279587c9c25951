package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/mood"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrMoodEntryNotFound 在指定记录不存在或不属于当前用户时返回
	ErrMoodEntryNotFound = errors.New("mood entry not found")
	// ErrMoodEntryExists 当天已经记录过心情
	ErrMoodEntryExists = errors.New("mood already recorded for this day")
	// ErrMoodInvalidLevel 心情等级不在 1-5 之间
	ErrMoodInvalidLevel = errors.New("mood level must be between 1 and 5")
	// ErrPartnerNotLinked 尚未绑定伴侣
	ErrPartnerNotLinked = errors.New("partner not linked")
)

// MoodService 负责心情记录的存储与汇总
// 记录创建后只允许补充 Insight/LoveMessage
type MoodService struct {
	db     *gorm.DB
	engine *mood.Engine
	bands  mood.InsightBands
}

// MoodEntryInput 定义记录心情时的输入对象
type MoodEntryInput struct {
	Date       time.Time
	Level      int
	EventLabel string
	Location   string
	PhotoURL   string
}

// MoodEnrichmentInput 使用指针区分未传入与清空
type MoodEnrichmentInput struct {
	Insight     *string
	LoveMessage *string
}

// NewMoodService 构造 MoodService，engine 为空时使用本地时区
func NewMoodService(gdb *gorm.DB, engine *mood.Engine, bands mood.InsightBands) *MoodService {
	if engine == nil {
		engine = mood.NewEngine(time.Local)
	}
	return &MoodService{db: gdb, engine: engine, bands: bands}
}

// Engine 返回服务使用的聚合引擎
func (s *MoodService) Engine() *mood.Engine {
	return s.engine
}

// Record 记录某天的心情，同一天重复记录返回 ErrMoodEntryExists
func (s *MoodService) Record(ownerID uint, input MoodEntryInput) (*db.MoodEntry, error) {
	if !mood.Level(input.Level).Valid() {
		return nil, ErrMoodInvalidLevel
	}

	entryDate := s.engine.Day(input.Date)
	record := db.MoodEntry{
		OwnerID:    ownerID,
		EntryDate:  entryDate,
		MoodLevel:  input.Level,
		EventLabel: strings.TrimSpace(input.EventLabel),
		Location:   strings.TrimSpace(input.Location),
		PhotoURL:   strings.TrimSpace(input.PhotoURL),
	}

	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "entry_date"}},
		DoNothing: true,
	}).Create(&record)
	if result.Error != nil {
		return nil, fmt.Errorf("record mood: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrMoodEntryExists
	}

	return &record, nil
}

// Enrich 补充记录的洞察或情话
func (s *MoodService) Enrich(ownerID, id uint, input MoodEnrichmentInput) (*db.MoodEntry, error) {
	entry, err := s.get(ownerID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Insight != nil {
		updates["insight"] = strings.TrimSpace(*input.Insight)
	}
	if input.LoveMessage != nil {
		updates["love_message"] = strings.TrimSpace(*input.LoveMessage)
	}
	if len(updates) == 0 {
		return entry, nil
	}

	if err := s.db.Model(entry).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("enrich mood entry: %w", err)
	}
	return s.get(ownerID, id)
}

// Delete 物理删除当前用户的记录，之后同一天可以重新记录
func (s *MoodService) Delete(ownerID, id uint) error {
	result := s.db.Unscoped().Where("owner_id = ?", ownerID).Delete(&db.MoodEntry{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete mood entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMoodEntryNotFound
	}
	return nil
}

// ListBetween 返回 [start, end] 日历日区间内的记录，按日期升序
func (s *MoodService) ListBetween(ownerID uint, start, end time.Time) ([]db.MoodEntry, error) {
	from := s.engine.Day(start)
	to := s.engine.Day(end)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: end before start")
	}

	var entries []db.MoodEntry
	if err := s.db.Where("owner_id = ?", ownerID).
		Where("entry_date BETWEEN ? AND ?", from, to).
		Order("entry_date ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}
	return entries, nil
}

// Month 返回 ref 所在自然月的记录
func (s *MoodService) Month(ownerID uint, ref time.Time) ([]mood.Entry, error) {
	day := s.engine.Day(ref)
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	last := first.AddDate(0, 1, -1)

	rows, err := s.ListBetween(ownerID, first, last)
	if err != nil {
		return nil, err
	}
	return s.engine.BucketByMonth(ToEntries(rows), ref), nil
}

// Day 返回 date 当天的记录，没有记录时返回 ErrMoodEntryNotFound
func (s *MoodService) Day(ownerID uint, date time.Time) (*db.MoodEntry, error) {
	rows, err := s.ListBetween(ownerID, date, date)
	if err != nil {
		return nil, err
	}

	entry, ok := s.engine.MoodForDate(ToEntries(rows), date)
	if !ok {
		return nil, ErrMoodEntryNotFound
	}
	for i := range rows {
		if rows[i].ID == entry.ID {
			return &rows[i], nil
		}
	}
	return nil, ErrMoodEntryNotFound
}

// Year 返回 ref 所在年份的记录
func (s *MoodService) Year(ownerID uint, ref time.Time) ([]mood.Entry, error) {
	day := s.engine.Day(ref)
	first := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())

	rows, err := s.ListBetween(ownerID, first, first.AddDate(1, 0, -1))
	if err != nil {
		return nil, err
	}
	return s.engine.BucketByYear(ToEntries(rows), ref), nil
}

// Stats 统计区间内的记录率与连续记录天数
func (s *MoodService) Stats(ownerID uint, start, end time.Time) (mood.Stats, error) {
	rows, err := s.ListBetween(ownerID, start, end)
	if err != nil {
		return mood.Stats{}, err
	}
	return s.engine.StatsBetween(ToEntries(rows), start, end), nil
}

// WeeklySummary 计算 weekStart 起一周的汇总
func (s *MoodService) WeeklySummary(ownerID uint, weekStart time.Time, language string) (mood.WeeklySummary, error) {
	entries, err := s.weekEntries(ownerID, weekStart)
	if err != nil {
		return mood.WeeklySummary{}, err
	}
	return s.engine.BuildWeeklySummary(entries, weekStart, mood.NewBandInsights(s.bands, language)), nil
}

// CoupleWeek 计算用户与伴侣同一周的汇总
func (s *MoodService) CoupleWeek(user *db.User, weekStart time.Time, language string) (mood.CoupleSummary, error) {
	if user == nil || user.PartnerID == nil {
		return mood.CoupleSummary{}, ErrPartnerNotLinked
	}

	self, err := s.weekEntries(user.ID, weekStart)
	if err != nil {
		return mood.CoupleSummary{}, err
	}
	partner, err := s.weekEntries(*user.PartnerID, weekStart)
	if err != nil {
		return mood.CoupleSummary{}, err
	}

	return s.engine.CoupleWeek(self, partner, weekStart, mood.NewBandInsights(s.bands, language)), nil
}

func (s *MoodService) weekEntries(ownerID uint, weekStart time.Time) ([]mood.Entry, error) {
	start := s.engine.Day(weekStart)
	rows, err := s.ListBetween(ownerID, start, start.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}
	return ToEntries(rows), nil
}

func (s *MoodService) get(ownerID, id uint) (*db.MoodEntry, error) {
	var entry db.MoodEntry
	if err := s.db.Where("owner_id = ?", ownerID).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMoodEntryNotFound
		}
		return nil, fmt.Errorf("get mood entry: %w", err)
	}
	return &entry, nil
}

// ToEntries 将存储模型转换为聚合引擎使用的快照
func ToEntries(rows []db.MoodEntry) []mood.Entry {
	entries := make([]mood.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, mood.Entry{
			ID:          row.ID,
			OwnerID:     row.OwnerID,
			Date:        row.EntryDate,
			Level:       mood.Level(row.MoodLevel),
			EventLabel:  row.EventLabel,
			Location:    row.Location,
			PhotoURL:    row.PhotoURL,
			Insight:     row.Insight,
			LoveMessage: row.LoveMessage,
			CreatedAt:   row.CreatedAt,
		})
	}
	return entries
}
