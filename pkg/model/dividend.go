package model

import (
	"time"
)

// DividFactor 股票除权除息数据，存储从QMT获取的公司行为调整因子
type DividFactor struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StockCode  string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_divid_code_time,priority:1" json:"stock_code"`
	Time       int64     `gorm:"not null;uniqueIndex:idx_divid_code_time,priority:2" json:"time"` // 毫秒时间戳
	DividDate  time.Time `gorm:"type:date;not null;index" json:"divid_date"`                     // 除权日期
	Interest   float64   `gorm:"default:0" json:"interest"`    // 每股派息金额
	StockBonus float64   `gorm:"default:0" json:"stock_bonus"` // 每股送股数
	StockGift  float64   `gorm:"default:0" json:"stock_gift"`  // 每股转增数
	AllotNum   float64   `gorm:"default:0" json:"allot_num"`   // 每股配股数
	AllotPrice float64   `gorm:"default:0" json:"allot_price"` // 配股价格
	Gugai      float64   `gorm:"default:0" json:"gugai"`       // 股改数据
	DR         float64   `gorm:"default:0" json:"dr"`          // 除权因子
}

func (DividFactor) TableName() string {
	return "qmt_stock_divid_factors"
}

// DividDateOf 将毫秒时间戳转换为除权日期
func DividDateOf(tsMillis int64) time.Time {
	t := time.UnixMilli(tsMillis).Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
