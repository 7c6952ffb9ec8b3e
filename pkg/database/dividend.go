package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"QuantDataHub/pkg/model"
)

// DividendDB 除权数据访问
type DividendDB struct {
	db *gorm.DB
}

func (m *MySQL) Dividend() *DividendDB {
	return &DividendDB{db: m.db}
}

// UpsertBatch 批量写入除权记录，(stock_code, time)冲突时更新
func (d *DividendDB) UpsertBatch(factors []model.DividFactor) (int, error) {
	if len(factors) == 0 {
		return 0, nil
	}
	err := d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stock_code"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"divid_date", "interest", "stock_bonus", "stock_gift",
			"allot_num", "allot_price", "gugai", "dr",
		}),
	}).CreateInBatches(factors, 500).Error
	if err != nil {
		return 0, fmt.Errorf("批量写入除权数据失败: %w", err)
	}
	return len(factors), nil
}

// GetByStockAndDateRange 获取某股票在指定除权日期范围内的记录，按除权日期升序
func (d *DividendDB) GetByStockAndDateRange(stockCode string, start, end time.Time) ([]model.DividFactor, error) {
	var factors []model.DividFactor
	err := d.db.Where("stock_code = ? AND divid_date >= ? AND divid_date <= ?",
		stockCode, dateOnly(start), dateOnly(end)).
		Order("divid_date ASC").
		Find(&factors).Error
	if err != nil {
		return nil, fmt.Errorf("查询除权数据失败: %w", err)
	}
	return factors, nil
}

// GetByDateRange 获取指定除权日期范围内的所有记录
func (d *DividendDB) GetByDateRange(start, end time.Time) ([]model.DividFactor, error) {
	var factors []model.DividFactor
	err := d.db.Where("divid_date >= ? AND divid_date <= ?", dateOnly(start), dateOnly(end)).
		Order("stock_code ASC, divid_date ASC").
		Find(&factors).Error
	if err != nil {
		return nil, fmt.Errorf("查询除权数据失败: %w", err)
	}
	return factors, nil
}

// DeleteRange 删除某股票指定除权日期范围内的记录
func (d *DividendDB) DeleteRange(stockCode string, start, end time.Time) (int64, error) {
	result := d.db.Where("stock_code = ? AND divid_date >= ? AND divid_date <= ?",
		stockCode, dateOnly(start), dateOnly(end)).
		Delete(&model.DividFactor{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除除权数据失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DividendStats 除权统计信息
type DividendStats struct {
	TotalRecords  int            `json:"total_records"`
	TotalStocks   int            `json:"total_stocks"`
	RecordsByDate map[string]int `json:"records_by_date"`
	StocksByDate  map[string]int `json:"stocks_by_date"`
}

// Statistics 统计指定除权日期范围内每日的记录数与涉及股票数
func (d *DividendDB) Statistics(start, end time.Time) (*DividendStats, error) {
	factors, err := d.GetByDateRange(start, end)
	if err != nil {
		return nil, err
	}

	stats := &DividendStats{
		RecordsByDate: make(map[string]int),
		StocksByDate:  make(map[string]int),
	}
	allStocks := make(map[string]bool)
	stocksByDate := make(map[string]map[string]bool)

	for _, f := range factors {
		dateStr := f.DividDate.Format("2006-01-02")
		stats.RecordsByDate[dateStr]++
		if stocksByDate[dateStr] == nil {
			stocksByDate[dateStr] = make(map[string]bool)
		}
		stocksByDate[dateStr][f.StockCode] = true
		allStocks[f.StockCode] = true
	}

	for dateStr, stocks := range stocksByDate {
		stats.StocksByDate[dateStr] = len(stocks)
	}
	stats.TotalRecords = len(factors)
	stats.TotalStocks = len(allStocks)
	return stats, nil
}
