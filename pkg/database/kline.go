package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"QuantDataHub/pkg/model"
)

// KlineDB 单一周期K线数据访问，日/周/月各自对应一张表
type KlineDB struct {
	db     *gorm.DB
	period model.Period
}

func (m *MySQL) Kline(period model.Period) *KlineDB {
	return &KlineDB{db: m.db, period: period}
}

// Period 当前访问的K线周期
func (k *KlineDB) Period() model.Period {
	return k.period
}

func (k *KlineDB) table() *gorm.DB {
	return k.db.Table(k.period.TableName())
}

// UpsertBatch 批量写入K线，(stock_code, time)冲突时更新行情字段
func (k *KlineDB) UpsertBatch(klines []model.Kline) (int, error) {
	if len(klines) == 0 {
		return 0, nil
	}
	err := k.table().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_code"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "amount"}),
	}).CreateInBatches(klines, 500).Error
	if err != nil {
		return 0, fmt.Errorf("批量写入%s数据失败: %w", k.period.CNName(), err)
	}
	return len(klines), nil
}

// DeleteRange 删除某股票指定时间范围内的K线
func (k *KlineDB) DeleteRange(stockCode string, start, end time.Time) (int64, error) {
	result := k.table().
		Where("stock_code = ? AND time >= ? AND time <= ?", stockCode, start, end).
		Delete(&model.Kline{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除%s数据失败: %w", k.period.CNName(), result.Error)
	}
	return result.RowsAffected, nil
}

// GetRange 查询某股票指定时间范围内的K线，按时间升序
func (k *KlineDB) GetRange(stockCode string, start, end time.Time) ([]model.Kline, error) {
	var klines []model.Kline
	err := k.table().
		Where("stock_code = ? AND time >= ? AND time <= ?", stockCode, start, end).
		Order("time ASC").
		Find(&klines).Error
	if err != nil {
		return nil, fmt.Errorf("查询%s数据失败: %w", k.period.CNName(), err)
	}
	return klines, nil
}

// GetLatestTime 查询某股票最新一根K线的时间，无数据时ok为false
func (k *KlineDB) GetLatestTime(stockCode string) (time.Time, bool, error) {
	var kline model.Kline
	err := k.table().
		Where("stock_code = ?", stockCode).
		Order("time DESC").
		First(&kline).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("查询最新%s时间失败: %w", k.period.CNName(), err)
	}
	return kline.Time, true, nil
}

// Count 统计某股票的K线数量，stockCode为空时统计全表
func (k *KlineDB) Count(stockCode string) (int64, error) {
	query := k.table()
	if stockCode != "" {
		query = query.Where("stock_code = ?", stockCode)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计%s数量失败: %w", k.period.CNName(), err)
	}
	return count, nil
}
