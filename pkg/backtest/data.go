package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"QuantDataHub/pkg/logger"
)

// Bar 回测用K线，从导出的CSV加载
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// IndustryMapping 股票代码到行业名称的映射
type IndustryMapping map[string]string

// LoadIndustryCSV 加载行业分类文件，行格式stock_code,industry，无表头，
// 返回映射与文件中的股票顺序
func LoadIndustryCSV(path string) (IndustryMapping, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("打开行业分类文件失败: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("解析行业分类文件失败: %w", err)
	}

	mapping := make(IndustryMapping, len(records))
	codes := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		if _, ok := mapping[rec[0]]; ok {
			continue
		}
		mapping[rec[0]] = rec[1]
		codes = append(codes, rec[0])
	}
	if len(mapping) == 0 {
		return nil, nil, fmt.Errorf("行业分类文件为空: %s", path)
	}
	logger.Info(fmt.Sprintf("成功加载行业分类数据，共%d只股票", len(mapping)))
	return mapping, codes, nil
}

// LoadBars 加载单只股票的CSV K线，跳过占位行（收盘价为负），按日期升序
func LoadBars(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开K线文件失败: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析K线文件失败: %w", err)
	}

	bars := make([]Bar, 0, len(records))
	for _, rec := range records {
		if len(rec) < 6 {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", rec[0], time.Local)
		if err != nil {
			continue
		}
		var b Bar
		b.Date = date
		b.Open, _ = strconv.ParseFloat(rec[1], 64)
		b.High, _ = strconv.ParseFloat(rec[2], 64)
		b.Low, _ = strconv.ParseFloat(rec[3], 64)
		b.Close, _ = strconv.ParseFloat(rec[4], 64)
		b.Volume, _ = strconv.ParseInt(rec[5], 10, 64)
		if b.Close <= 0 {
			// 停牌占位行不参与回测
			continue
		}
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}

// LoadDataset 按行业分类文件中的股票列表加载K线数据，
// 缺失或空文件的股票记录为失败，不中断加载
func LoadDataset(dataDir string, codes []string) (map[string][]Bar, []string) {
	dataset := make(map[string][]Bar, len(codes))
	var failed []string
	for _, code := range codes {
		path := filepath.Join(dataDir, code+".csv")
		bars, err := LoadBars(path)
		if err != nil || len(bars) == 0 {
			failed = append(failed, code)
			continue
		}
		dataset[code] = bars
	}
	logger.Info(fmt.Sprintf("K线数据加载完成，成功%d只，失败%d只", len(dataset), len(failed)))
	return dataset, failed
}
