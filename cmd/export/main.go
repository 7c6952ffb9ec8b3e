package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/export"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
	"QuantDataHub/pkg/syncer"
)

func main() {
	configPath := flag.String("config", config.GetDefaultConfigPath(), "配置文件路径")
	exportType := flag.String("type", "klines", "导出类型: klines/sectors")
	periodFlag := flag.String("period", "daily", "K线周期: daily/weekly/monthly")
	codesFlag := flag.String("codes", "", "股票代码列表，逗号分隔，为空时取基准板块成分股")
	prefixesFlag := flag.String("prefixes", "", "板块名前缀列表，逗号分隔，导出板块成分股时必填")
	startFlag := flag.String("start", "", "开始日期 YYYY-MM-DD")
	endFlag := flag.String("end", "", "结束日期 YYYY-MM-DD")
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

	exporter := export.NewExporter(db, cfg.Export.DataDir)

	switch *exportType {
	case "klines":
		period, err := model.ParsePeriod(*periodFlag)
		if err != nil {
			logger.Fatal(err.Error())
		}

		codes := splitList(*codesFlag)
		if len(codes) == 0 {
			codes, err = db.SectorStock().GetCodesBySectorName(cfg.Sync.BenchmarkSector)
			if err != nil {
				logger.Fatal("获取基准板块成分股失败: " + err.Error())
			}
			if len(codes) == 0 {
				logger.Fatal(fmt.Sprintf("基准板块[%s]无成分股，请先同步板块数据", cfg.Sync.BenchmarkSector))
			}
		}

		end := parseDateFlag(*endFlag)
		if end.IsZero() {
			end = syncer.DefaultEndDate(time.Now())
		}
		start := parseDateFlag(*startFlag)
		if start.IsZero() {
			start = end.AddDate(-cfg.Sync.LookbackYears, 0, 0)
		}

		failed := exporter.ExportKlines(codes, period, start, end)
		if len(failed) > 0 {
			logger.Warn(fmt.Sprintf("导出失败的股票: %s", strings.Join(failed, ",")))
		}

	case "sectors":
		prefixes := splitList(*prefixesFlag)
		if len(prefixes) == 0 {
			logger.Fatal("导出板块成分股时prefixes参数不能为空")
		}
		if err := exporter.ExportSectorStocks(prefixes); err != nil {
			logger.Fatal("导出板块成分股失败: " + err.Error())
		}

	default:
		logger.Fatal("无效的type参数，可选: klines/sectors")
	}

	logger.Info("导出完成")
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
