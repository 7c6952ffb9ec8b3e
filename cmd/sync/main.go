package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"QuantDataHub/pkg/collector"
	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/messaging"
	"QuantDataHub/pkg/model"
	"QuantDataHub/pkg/syncer"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "配置文件路径")
	job := flag.String("job", "", "同步任务: calendar/sectors/sector-stocks/klines/dividends/all")
	periodFlag := flag.String("period", "daily", "K线周期: daily/weekly/monthly")
	codesFlag := flag.String("codes", "", "股票代码列表，逗号分隔，为空时取基准板块成分股")
	sectorsFlag := flag.String("sectors", "", "板块名列表，逗号分隔，为空时同步全部板块")
	startFlag := flag.String("start", "", "开始日期 YYYY-MM-DD")
	endFlag := flag.String("end", "", "结束日期 YYYY-MM-DD")
	workersFlag := flag.Int("workers", 0, "并发worker数，0时使用配置值")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	logger.Setup(cfg.App.Env)
	defer logger.Sync()

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
		}
	}

	if *workersFlag > 0 {
		cfg.Sync.MaxWorkers = *workersFlag
	}

	qmt := collector.NewQMTAdapter(cfg.DataSources.QMT.BaseURL, cfg.DataSources.QMT.Timeout)
	akshare := collector.NewAKShareAdapter(cfg.DataSources.AKShare.BaseURL, cfg.DataSources.AKShare.Timeout)
	svc := syncer.NewService(db, qmt, qmt, qmt, akshare, publisher, cfg)

	codes := splitList(*codesFlag)
	start := parseDateFlag(*startFlag)
	end := parseDateFlag(*endFlag)

	switch *job {
	case "calendar":
		_, err = svc.SyncCalendar()
	case "sectors":
		_, err = svc.SyncSectors()
	case "sector-stocks":
		_, err = svc.SyncSectorStocks(splitList(*sectorsFlag))
	case "klines":
		period, perr := model.ParsePeriod(*periodFlag)
		if perr != nil {
			logger.Fatal(perr.Error())
		}
		_, err = svc.SyncKlines(syncer.KlineOptions{
			StockCodes: codes, Period: period, Start: start, End: end,
		})
	case "dividends":
		_, err = svc.SyncDividends(syncer.DividendOptions{
			StockCodes: codes, Start: start, End: end,
		})
	case "all":
		err = runAll(svc)
	default:
		logger.Fatal("无效的job参数，可选: calendar/sectors/sector-stocks/klines/dividends/all")
	}

	if err != nil {
		logger.Fatal("同步失败: " + err.Error())
	}
	logger.Info("同步完成")
}

// runAll 按依赖顺序执行全量同步
func runAll(svc *syncer.Service) error {
	if _, err := svc.SyncCalendar(); err != nil {
		return err
	}
	if _, err := svc.SyncSectors(); err != nil {
		return err
	}
	if _, err := svc.SyncSectorStocks(nil); err != nil {
		return err
	}
	for _, period := range []model.Period{model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly} {
		if _, err := svc.SyncKlines(syncer.KlineOptions{Period: period}); err != nil {
			return err
		}
	}
	_, err := svc.SyncDividends(syncer.DividendOptions{})
	return err
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDateFlag(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		logger.Fatal(fmt.Sprintf("日期参数格式错误，应为YYYY-MM-DD: %s", s))
	}
	return t
}
