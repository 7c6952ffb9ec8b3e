package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncJob 同步任务类型
type SyncJob string

const (
	JobCalendar     SyncJob = "calendar"
	JobSectors      SyncJob = "sectors"
	JobSectorStocks SyncJob = "sector_stocks"
	JobKlines       SyncJob = "klines"
	JobDividends    SyncJob = "dividends"
)

// SyncRun 一次同步任务的执行记录
type SyncRun struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Job        SyncJob    `gorm:"type:varchar(30);not null;index" json:"job"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Total      int        `gorm:"default:0" json:"total"`     // 处理对象总数
	Succeeded  int        `gorm:"default:0" json:"succeeded"` // 成功数
	Failed     int        `gorm:"default:0" json:"failed"`    // 失败数
	Message    string     `gorm:"type:text" json:"message,omitempty"`
}

func (s *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
