package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"QuantDataHub/pkg/model"
)

// SyncRunDB 同步任务执行记录访问
type SyncRunDB struct {
	db *gorm.DB
}

func (m *MySQL) SyncRun() *SyncRunDB {
	return &SyncRunDB{db: m.db}
}

// Start 记录一次同步任务开始
func (s *SyncRunDB) Start(job model.SyncJob) (*model.SyncRun, error) {
	run := &model.SyncRun{
		Job:       job,
		StartedAt: time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("创建同步记录失败: %w", err)
	}
	return run, nil
}

// Finish 回写同步任务结果
func (s *SyncRunDB) Finish(run *model.SyncRun, total, succeeded, failed int, message string) error {
	now := time.Now()
	run.FinishedAt = &now
	run.Total = total
	run.Succeeded = succeeded
	run.Failed = failed
	run.Message = message
	if err := s.db.Save(run).Error; err != nil {
		return fmt.Errorf("更新同步记录失败: %w", err)
	}
	return nil
}

// ListRecent 获取最近的同步记录
func (s *SyncRunDB) ListRecent(limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []model.SyncRun
	err := s.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("查询同步记录失败: %w", err)
	}
	return runs, nil
}
