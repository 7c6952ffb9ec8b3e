package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"QuantDataHub/pkg/collector"
	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/messaging"
	"QuantDataHub/pkg/monitor"
	"QuantDataHub/pkg/scheduler"
	"QuantDataHub/pkg/syncer"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	logger.Setup(cfg.App.Env)
	defer logger.Sync()
	logger.Info("启动定时同步调度器...")

	db, err := database.NewMySQL(cfg)
	if err != nil {
		logger.Fatal("连接数据库失败: " + err.Error())
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("数据库迁移失败: " + err.Error())
	}

	var publisher messaging.EventPublisher = messaging.NopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := messaging.NewNATSClient(cfg.NATS.URL)
		if err != nil {
			logger.Warn("连接NATS失败，同步事件将不发布: " + err.Error())
		} else {
			defer nc.Close()
			publisher = messaging.NewNATSPublisher(nc)

			// 订阅全部同步完成事件，汇总到调度器日志便于排查
			err := messaging.SubscribeSyncRuns(nc, "scheduler-sync-log", func(e messaging.SyncRunEvent) {
				logger.Info(fmt.Sprintf("同步任务[%s]完成(run=%s): 总数%d 成功%d 失败%d %s",
					e.Job, e.RunID, e.Total, e.Succeeded, e.Failed, e.Message))
			})
			if err != nil {
				logger.Warn("订阅同步事件失败: " + err.Error())
			}
		}
	}

	qmt := collector.NewQMTAdapter(cfg.DataSources.QMT.BaseURL, cfg.DataSources.QMT.Timeout)
	akshare := collector.NewAKShareAdapter(cfg.DataSources.AKShare.BaseURL, cfg.DataSources.AKShare.Timeout)
	svc := syncer.NewService(db, qmt, qmt, qmt, akshare, publisher, cfg)

	mon := monitor.NewMonitor(func(component, status, message string) {
		logger.Warn(fmt.Sprintf("组件[%s]状态变为%s: %s", component, status, message))
	})

	sched := scheduler.NewScheduler(svc, db, mon)
	sched.RegisterCheck("mysql", db.Ping)
	sched.RegisterCheck("qmt", qmt.Ping)
	sched.RegisterCheck("akshare", akshare.Ping)

	if err := sched.Start(); err != nil {
		logger.Fatal("启动调度器失败: " + err.Error())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
}
