package main

import (
	"flag"
	"os"
	"path/filepath"

	"QuantDataHub/pkg/backtest"
	"QuantDataHub/pkg/logger"
)

func main() {
	industryFile := flag.String("industry-file", "stock_data/300SW1_sectors_stocks.csv", "行业分类CSV文件路径")
	dataDir := flag.String("data-dir", filepath.Join("stock_data", "daily"), "日K线CSV目录")
	cash := flag.Float64("cash", 1000000, "初始资金")
	rsiPeriod := flag.Int("rsi-period", 14, "RSI计算周期")
	flag.Parse()

	logger.Setup("dev")
	defer logger.Sync()

	industry, codes, err := backtest.LoadIndustryCSV(*industryFile)
	if err != nil {
		logger.Fatal(err.Error())
	}

	dataset, failed := backtest.LoadDataset(*dataDir, codes)
	if len(dataset) == 0 {
		logger.Fatal("没有成功加载任何股票数据，请检查数据目录")
	}

	engine := backtest.NewEngine(dataset, industry, backtest.Options{
		RSIPeriod:   *rsiPeriod,
		InitialCash: *cash,
	})
	result, err := engine.Run()
	if err != nil {
		logger.Fatal("回测失败: " + err.Error())
	}
	result.FailedStocks = failed

	backtest.WriteReport(os.Stdout, result)
}
