package db

import (
	"time"

	"gorm.io/gorm"
)

// MoodEntry 记录用户某一天的心情
// OwnerID + EntryDate 采用唯一索引，保证每人每天一条；Insight/LoveMessage 可在创建后补充
type MoodEntry struct {
	gorm.Model
	OwnerID     uint      `gorm:"index;index:idx_mood_entry_unique,unique"`
	Owner       User      `gorm:"constraint:OnDelete:CASCADE"`
	EntryDate   time.Time `gorm:"index:idx_mood_entry_unique,unique"`
	MoodLevel   int       `gorm:"not null"`
	EventLabel  string
	Location    string
	PhotoURL    string
	Insight     string `gorm:"type:text"`
	LoveMessage string `gorm:"type:text"`
}

// TableName 重写确保唯一索引作用到 owner_id + entry_date
func (MoodEntry) TableName() string {
	return "mood_entries"
}
