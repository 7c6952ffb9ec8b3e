package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
)

// Exporter CSV导出器，将数据库中的K线与板块数据落盘为CSV文件
type Exporter struct {
	db      *database.MySQL
	dataDir string
}

// NewExporter 创建导出器
func NewExporter(db *database.MySQL, dataDir string) *Exporter {
	return &Exporter{db: db, dataDir: dataDir}
}

// klineRow CSV中的一行K线，无表头，列顺序固定：
// time,open,high,low,close,volume,amount
type klineRow struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Amount float64
}

// gapRow 缺失交易日的占位行，OHLC为-1，量额为0
func gapRow(date time.Time) klineRow {
	return klineRow{Date: date, Open: -1, High: -1, Low: -1, Close: -1}
}

// ExportKline 导出单只股票的K线CSV。流程：
// 按交易日历构建完整周期网格，数据库缺失的交易日填充占位行，
// 再与已有文件合并（保留范围外的旧行），按日期升序重写整个文件
func (e *Exporter) ExportKline(stockCode string, period model.Period, start, end time.Time) error {
	if !period.Valid() {
		return fmt.Errorf("不支持的周期类型: %s", period)
	}

	klines, err := e.db.Kline(period).GetRange(stockCode, start, end)
	if err != nil {
		return err
	}

	grid, err := e.periodGrid(period, start, end)
	if err != nil {
		return err
	}

	byDate := make(map[string]model.Kline, len(klines))
	for _, k := range klines {
		if !k.Valid() {
			logger.Warn(fmt.Sprintf("股票%s在%s的K线OHLC异常，仍按原值导出",
				stockCode, k.Time.Format("2006-01-02")))
		}
		byDate[k.Time.Format("2006-01-02")] = k
	}

	newRows := make([]klineRow, 0, len(grid))
	for _, date := range grid {
		if k, ok := byDate[date.Format("2006-01-02")]; ok {
			newRows = append(newRows, klineRow{
				Date: date, Open: k.Open, High: k.High, Low: k.Low,
				Close: k.Close, Volume: k.Volume, Amount: k.Amount,
			})
		} else {
			newRows = append(newRows, gapRow(date))
		}
	}

	path := e.klinePath(stockCode, period)
	merged, err := mergeRows(path, newRows, start, end)
	if err != nil {
		return err
	}
	return writeRows(path, merged)
}

// ExportKlines 批量导出K线CSV，单只失败不中断，返回失败的股票代码
func (e *Exporter) ExportKlines(stockCodes []string, period model.Period, start, end time.Time) []string {
	bar := progressbar.Default(int64(len(stockCodes)), "导出"+period.CNName())
	var failed []string
	for _, code := range stockCodes {
		bar.Add(1)
		if err := e.ExportKline(code, period, start, end); err != nil {
			logger.Warn(fmt.Sprintf("导出股票%s%s失败: %v", code, period.CNName(), err))
			failed = append(failed, code)
		}
	}
	logger.Info(fmt.Sprintf("%s导出完成，成功%d只，失败%d只",
		period.CNName(), len(stockCodes)-len(failed), len(failed)))
	return failed
}

// periodGrid 按交易日历构建周期网格：
// 日K为范围内每个交易日；周K为每ISO周最后一个交易日；月K为每月最后一个交易日
func (e *Exporter) periodGrid(period model.Period, start, end time.Time) ([]time.Time, error) {
	cals, err := e.db.Calendar().GetRange(start, end)
	if err != nil {
		return nil, err
	}
	if len(cals) == 0 {
		return nil, fmt.Errorf("交易日历在%s至%s范围内为空，请先同步交易日历",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	if period == model.PeriodDaily {
		grid := make([]time.Time, 0, len(cals))
		for _, c := range cals {
			grid = append(grid, c.TradeDate)
		}
		return grid, nil
	}

	// 日历升序，按分组键取各组最后一个交易日
	var grid []time.Time
	lastKey := ""
	for _, c := range cals {
		var key string
		if period == model.PeriodWeekly {
			year, week := c.TradeDate.ISOWeek()
			key = fmt.Sprintf("%d-W%02d", year, week)
		} else {
			key = fmt.Sprintf("%d-%02d", c.Year, c.Month)
		}
		if key == lastKey {
			grid[len(grid)-1] = c.TradeDate
		} else {
			grid = append(grid, c.TradeDate)
			lastKey = key
		}
	}
	return grid, nil
}

// klinePath K线CSV文件路径：<dataDir>/<period>/<stock_code>.csv
func (e *Exporter) klinePath(stockCode string, period model.Period) string {
	return filepath.Join(e.dataDir, string(period), stockCode+".csv")
}

// mergeRows 合并已有文件与新行：保留文件中早于start和晚于end的行，
// 范围内的行整体替换为新行，结果按日期升序
func mergeRows(path string, newRows []klineRow, start, end time.Time) ([]klineRow, error) {
	existing, err := readRows(path)
	if err != nil {
		return nil, err
	}

	merged := make([]klineRow, 0, len(existing)+len(newRows))
	for _, r := range existing {
		if r.Date.Before(start) {
			merged = append(merged, r)
		}
	}
	merged = append(merged, newRows...)
	for _, r := range existing {
		if r.Date.After(end) {
			merged = append(merged, r)
		}
	}
	return merged, nil
}

// readRows 读取已有CSV文件，文件不存在时返回空
func readRows(path string) ([]klineRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("打开CSV文件失败: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV文件失败: %w", err)
	}

	rows := make([]klineRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < 7 {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", rec[0], time.Local)
		if err != nil {
			logger.Warn(fmt.Sprintf("跳过无法解析的CSV行: %s", strings.Join(rec, ",")))
			continue
		}
		row := klineRow{Date: date}
		row.Open, _ = strconv.ParseFloat(rec[1], 64)
		row.High, _ = strconv.ParseFloat(rec[2], 64)
		row.Low, _ = strconv.ParseFloat(rec[3], 64)
		row.Close, _ = strconv.ParseFloat(rec[4], 64)
		row.Volume, _ = strconv.ParseInt(rec[5], 10, 64)
		row.Amount, _ = strconv.ParseFloat(rec[6], 64)
		rows = append(rows, row)
	}
	return rows, nil
}

// writeRows 将K线行写入CSV文件，无表头
func writeRows(path string, rows []klineRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, r := range rows {
		rec := []string{
			r.Date.Format("2006-01-02"),
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			strconv.FormatInt(r.Volume, 10),
			formatFloat(r.Amount),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("写入CSV失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}
	return nil
}

// formatFloat 按最短形式输出，占位行的-1不带小数位
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
