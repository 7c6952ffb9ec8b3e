package model

import (
	"fmt"
	"time"
)

// Period K线周期
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// QMTPeriod QMT网关侧的周期编码
func (p Period) QMTPeriod() string {
	switch p {
	case PeriodWeekly:
		return "1w"
	case PeriodMonthly:
		return "1mon"
	default:
		return "1d"
	}
}

// CNName 周期中文名，用于日志
func (p Period) CNName() string {
	switch p {
	case PeriodWeekly:
		return "周K"
	case PeriodMonthly:
		return "月K"
	default:
		return "日K"
	}
}

// Valid 校验周期取值
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// TableName K线数据所在表名
func (p Period) TableName() string {
	switch p {
	case PeriodWeekly:
		return "qmt_stock_weekly"
	case PeriodMonthly:
		return "qmt_stock_monthly"
	default:
		return "qmt_stock_daily"
	}
}

// ParsePeriod 解析周期字符串
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("不支持的周期类型: %s，支持的类型: daily/weekly/monthly", s)
	}
	return p, nil
}

// Kline OHLCV K线数据，日/周/月三种周期共用同一结构，存储在不同表中。
// 唯一索引不能写死名字，否则三张表迁移时索引名冲突，
// 用composite让gorm按表名生成各自的索引名
type Kline struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StockCode string    `gorm:"type:varchar(20);not null;index:,unique,composite:code_time,priority:1" json:"stock_code"`
	Time      time.Time `gorm:"not null;index:,unique,composite:code_time,priority:2" json:"time"`
	Open      float64   `gorm:"not null" json:"open"`
	High      float64   `gorm:"not null" json:"high"`
	Low       float64   `gorm:"not null" json:"low"`
	Close     float64   `gorm:"not null" json:"close"`
	Volume    int64     `gorm:"not null;default:0" json:"volume"`
	Amount    float64   `gorm:"not null;default:0" json:"amount"`
}

// Valid 校验K线高低价关系，high应不低于开收低的最大值，low应不高于开收高的最小值
func (k *Kline) Valid() bool {
	maxVal := max(k.Open, k.Close, k.Low)
	minVal := min(k.Open, k.Close, k.High)
	return k.High >= maxVal && k.Low <= minVal
}
