package syncer

import (
	"fmt"
	"time"

	"QuantDataHub/pkg/collector"
	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/messaging"
	"QuantDataHub/pkg/model"
)

// Service 数据同步服务，聚合各数据源到MySQL的同步逻辑
type Service struct {
	db          *database.MySQL
	klineSrc    collector.KlineSource
	sectorSrc   collector.SectorSource
	dividendSrc collector.DividendSource
	calendarSrc collector.CalendarSource
	publisher   messaging.EventPublisher

	benchmarkSector string // 默认同步范围的基准板块
	maxWorkers      int
	lookbackYears   int
}

// NewService 创建同步服务
func NewService(
	db *database.MySQL,
	klineSrc collector.KlineSource,
	sectorSrc collector.SectorSource,
	dividendSrc collector.DividendSource,
	calendarSrc collector.CalendarSource,
	publisher messaging.EventPublisher,
	cfg *config.Config,
) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		db:          db,
		klineSrc:    klineSrc,
		sectorSrc:   sectorSrc,
		dividendSrc: dividendSrc,
		calendarSrc: calendarSrc,
		publisher:   publisher,

		benchmarkSector: cfg.Sync.BenchmarkSector,
		maxWorkers:      cfg.Sync.MaxWorkers,
		lookbackYears:   cfg.Sync.LookbackYears,
	}
}

// finishRun 回写同步记录并发布事件，二者失败均只告警
func (s *Service) finishRun(run *model.SyncRun, total, succeeded, failed int, message string) {
	if err := s.db.SyncRun().Finish(run, total, succeeded, failed, message); err != nil {
		logger.Warn(fmt.Sprintf("回写同步记录失败: %v", err))
	}
	if err := s.publisher.PublishSyncRun(run); err != nil {
		logger.Warn(fmt.Sprintf("发布同步事件失败: %v", err))
	}
}

// DefaultEndDate 默认同步截止日期：16点后取当天，否则取前一天
func DefaultEndDate(now time.Time) time.Time {
	end := now
	if now.Hour() < 16 {
		end = now.AddDate(0, 0, -1)
	}
	return time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.Local)
}

// defaultRange 计算默认同步时间范围
func (s *Service) defaultRange() (time.Time, time.Time) {
	end := DefaultEndDate(time.Now())
	start := end.AddDate(-s.lookbackYears, 0, 0)
	return start, end
}

// defaultCodes 获取默认同步的股票代码：基准板块全部成分股
func (s *Service) defaultCodes() ([]string, error) {
	codes, err := s.db.SectorStock().GetCodesBySectorName(s.benchmarkSector)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("基准板块[%s]无成分股，请先同步板块数据", s.benchmarkSector)
	}
	return codes, nil
}
