package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
	"QuantDataHub/pkg/monitor"
	"QuantDataHub/pkg/syncer"
)

// Scheduler 定时任务调度器，负责收盘后的每日数据同步与健康检查
type Scheduler struct {
	cron    *cron.Cron
	syncSvc *syncer.Service
	db      *database.MySQL
	monitor *monitor.Monitor
	checks  map[string]monitor.CheckFunc
}

// NewScheduler 创建任务调度器
func NewScheduler(syncSvc *syncer.Service, db *database.MySQL, mon *monitor.Monitor) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		syncSvc: syncSvc,
		db:      db,
		monitor: mon,
		checks:  make(map[string]monitor.CheckFunc),
	}
}

// RegisterCheck 注册一个周期性健康检查
func (s *Scheduler) RegisterCheck(component string, fn monitor.CheckFunc) {
	s.checks[component] = fn
	if s.monitor != nil {
		s.monitor.RegisterComponent(component)
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	// 每个工作日16:30收盘后执行每日同步流水线
	if _, err := s.cron.AddFunc("0 30 16 * * 1-5", s.runDailyPipeline); err != nil {
		return fmt.Errorf("注册每日同步任务失败: %w", err)
	}

	// 每5分钟检查各组件健康状态
	if _, err := s.cron.AddFunc("@every 5m", s.runHealthChecks); err != nil {
		return fmt.Errorf("注册健康检查任务失败: %w", err)
	}

	s.cron.Start()
	logger.Info("调度器已启动")
	return nil
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("调度器已停止")
}

// runDailyPipeline 每日同步流水线：
// 日历 -> 板块 -> 成分股 -> 日/周/月K线 -> 除权数据，前序失败不阻断后续
func (s *Scheduler) runDailyPipeline() {
	today := time.Now()
	isTrade, err := s.db.Calendar().IsTradeDate(today)
	if err != nil {
		logger.Error(fmt.Sprintf("检查交易日失败，跳过本次同步: %v", err))
		return
	}
	if !isTrade {
		logger.Info(fmt.Sprintf("%s不是交易日，跳过每日同步", today.Format("2006-01-02")))
		return
	}

	logger.Info("开始每日数据同步流水线")

	if _, err := s.syncSvc.SyncCalendar(); err != nil {
		logger.Error(fmt.Sprintf("同步交易日历失败: %v", err))
	}
	if _, err := s.syncSvc.SyncSectors(); err != nil {
		logger.Error(fmt.Sprintf("同步板块列表失败: %v", err))
	}
	if _, err := s.syncSvc.SyncSectorStocks(nil); err != nil {
		logger.Error(fmt.Sprintf("同步板块成分股失败: %v", err))
	}
	for _, period := range []model.Period{model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly} {
		if _, err := s.syncSvc.SyncKlines(syncer.KlineOptions{Period: period}); err != nil {
			logger.Error(fmt.Sprintf("同步%s失败: %v", period.CNName(), err))
		}
	}
	if _, err := s.syncSvc.SyncDividends(syncer.DividendOptions{}); err != nil {
		logger.Error(fmt.Sprintf("同步除权数据失败: %v", err))
	}

	logger.Info("每日数据同步流水线结束")
}

// runHealthChecks 执行全部注册的健康检查
func (s *Scheduler) runHealthChecks() {
	if s.monitor == nil {
		return
	}
	for component, fn := range s.checks {
		s.monitor.Check(component, fn)
	}
}
