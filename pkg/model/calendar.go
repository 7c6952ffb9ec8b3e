package model

import (
	"time"
)

// TradeCalendar 交易日历，存储从AKShare获取的交易日期及派生字段
type TradeCalendar struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TradeDate    time.Time `gorm:"type:date;uniqueIndex;not null" json:"trade_date"`
	Year         int       `gorm:"not null;index" json:"year"`
	Month        int       `gorm:"not null" json:"month"`
	Day          int       `gorm:"not null" json:"day"`
	Weekday      int       `gorm:"not null" json:"weekday"` // 1=周一, 7=周日
	Quarter      int       `gorm:"not null" json:"quarter"`
	WeekOfYear   int       `gorm:"not null" json:"week_of_year"`
	IsMonthEnd   bool      `gorm:"default:false" json:"is_month_end"`   // 是否月末交易日
	IsQuarterEnd bool      `gorm:"default:false" json:"is_quarter_end"` // 是否季末交易日
	IsYearEnd    bool      `gorm:"default:false" json:"is_year_end"`    // 是否年末交易日
}

func (TradeCalendar) TableName() string {
	return "akshare_trade_calendar"
}

// NewTradeCalendar 根据交易日期计算派生字段，月末/季末/年末标记由同步服务统一判定
func NewTradeCalendar(tradeDate time.Time) TradeCalendar {
	_, week := tradeDate.ISOWeek()

	weekday := int(tradeDate.Weekday())
	if weekday == 0 {
		weekday = 7 // time.Sunday为0，转为7
	}

	return TradeCalendar{
		TradeDate:  tradeDate,
		Year:       tradeDate.Year(),
		Month:      int(tradeDate.Month()),
		Day:        tradeDate.Day(),
		Weekday:    weekday,
		Quarter:    (int(tradeDate.Month())-1)/3 + 1,
		WeekOfYear: week,
	}
}
