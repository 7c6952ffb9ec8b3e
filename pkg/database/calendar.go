package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"QuantDataHub/pkg/model"
)

// CalendarDB 交易日历数据访问
type CalendarDB struct {
	db *gorm.DB
}

func (m *MySQL) Calendar() *CalendarDB {
	return &CalendarDB{db: m.db}
}

// BatchCreate 批量写入交易日历
func (c *CalendarDB) BatchCreate(calendars []model.TradeCalendar) (int, error) {
	if len(calendars) == 0 {
		return 0, nil
	}
	if err := c.db.CreateInBatches(calendars, 500).Error; err != nil {
		return 0, fmt.Errorf("批量写入交易日历失败: %w", err)
	}
	return len(calendars), nil
}

// DeleteAll 删除所有交易日历并返回删除数量
func (c *CalendarDB) DeleteAll() (int64, error) {
	result := c.db.Where("1 = 1").Delete(&model.TradeCalendar{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除交易日历失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByYear 删除指定年份的交易日历
func (c *CalendarDB) DeleteByYear(year int) (int64, error) {
	result := c.db.Where("year = ?", year).Delete(&model.TradeCalendar{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除%d年交易日历失败: %w", year, result.Error)
	}
	return result.RowsAffected, nil
}

// GetByDate 根据日期获取交易日历记录
func (c *CalendarDB) GetByDate(date time.Time) (*model.TradeCalendar, error) {
	var cal model.TradeCalendar
	err := c.db.Where("trade_date = ?", dateOnly(date)).First(&cal).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询交易日历失败: %w", err)
	}
	return &cal, nil
}

// IsTradeDate 检查某个日期是否为交易日
func (c *CalendarDB) IsTradeDate(date time.Time) (bool, error) {
	var count int64
	err := c.db.Model(&model.TradeCalendar{}).
		Where("trade_date = ?", dateOnly(date)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询交易日失败: %w", err)
	}
	return count > 0, nil
}

// GetRange 获取指定时间范围内的所有交易日，按日期升序
func (c *CalendarDB) GetRange(start, end time.Time) ([]model.TradeCalendar, error) {
	var cals []model.TradeCalendar
	err := c.db.Where("trade_date >= ? AND trade_date <= ?", dateOnly(start), dateOnly(end)).
		Order("trade_date ASC").
		Find(&cals).Error
	if err != nil {
		return nil, fmt.Errorf("查询交易日范围失败: %w", err)
	}
	return cals, nil
}

// GetByYearMonth 获取某年某月的交易日，month为0时返回全年
func (c *CalendarDB) GetByYearMonth(year, month int) ([]model.TradeCalendar, error) {
	query := c.db.Where("year = ?", year)
	if month > 0 {
		query = query.Where("month = ?", month)
	}

	var cals []model.TradeCalendar
	err := query.Order("trade_date ASC").Find(&cals).Error
	if err != nil {
		return nil, fmt.Errorf("查询交易日失败: %w", err)
	}
	return cals, nil
}

// GetByQuarter 获取某季度的交易日
func (c *CalendarDB) GetByQuarter(year, quarter int) ([]model.TradeCalendar, error) {
	var cals []model.TradeCalendar
	err := c.db.Where("year = ? AND quarter = ?", year, quarter).
		Order("trade_date ASC").
		Find(&cals).Error
	if err != nil {
		return nil, fmt.Errorf("查询季度交易日失败: %w", err)
	}
	return cals, nil
}

// GetMonthEnds 获取月末交易日，year为0时不限年份
func (c *CalendarDB) GetMonthEnds(year int) ([]model.TradeCalendar, error) {
	return c.getFlagged("is_month_end", year)
}

// GetQuarterEnds 获取季末交易日
func (c *CalendarDB) GetQuarterEnds(year int) ([]model.TradeCalendar, error) {
	return c.getFlagged("is_quarter_end", year)
}

// GetYearEnds 获取年末交易日
func (c *CalendarDB) GetYearEnds(year int) ([]model.TradeCalendar, error) {
	return c.getFlagged("is_year_end", year)
}

func (c *CalendarDB) getFlagged(column string, year int) ([]model.TradeCalendar, error) {
	query := c.db.Where(column+" = ?", true)
	if year > 0 {
		query = query.Where("year = ?", year)
	}

	var cals []model.TradeCalendar
	err := query.Order("trade_date ASC").Find(&cals).Error
	if err != nil {
		return nil, fmt.Errorf("查询%s交易日失败: %w", column, err)
	}
	return cals, nil
}

// GetLatest 获取最新的交易日
func (c *CalendarDB) GetLatest() (*model.TradeCalendar, error) {
	return c.firstOrdered("trade_date DESC")
}

// GetEarliest 获取最早的交易日
func (c *CalendarDB) GetEarliest() (*model.TradeCalendar, error) {
	return c.firstOrdered("trade_date ASC")
}

func (c *CalendarDB) firstOrdered(order string) (*model.TradeCalendar, error) {
	var cal model.TradeCalendar
	err := c.db.Order(order).First(&cal).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询交易日失败: %w", err)
	}
	return &cal, nil
}

// GetNext 获取指定日期后的下一个交易日
func (c *CalendarDB) GetNext(date time.Time) (*model.TradeCalendar, error) {
	var cal model.TradeCalendar
	err := c.db.Where("trade_date > ?", dateOnly(date)).
		Order("trade_date ASC").
		First(&cal).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询下一交易日失败: %w", err)
	}
	return &cal, nil
}

// GetPrevious 获取指定日期前的上一个交易日
func (c *CalendarDB) GetPrevious(date time.Time) (*model.TradeCalendar, error) {
	var cal model.TradeCalendar
	err := c.db.Where("trade_date < ?", dateOnly(date)).
		Order("trade_date DESC").
		First(&cal).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询上一交易日失败: %w", err)
	}
	return &cal, nil
}

// CountRange 统计指定时间范围内的交易日数量
func (c *CalendarDB) CountRange(start, end time.Time) (int64, error) {
	var count int64
	err := c.db.Model(&model.TradeCalendar{}).
		Where("trade_date >= ? AND trade_date <= ?", dateOnly(start), dateOnly(end)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计交易日数量失败: %w", err)
	}
	return count, nil
}

// dateOnly 去掉时分秒，日历表按日期比较
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
