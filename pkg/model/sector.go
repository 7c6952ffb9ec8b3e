package model

import (
	"time"
)

// Sector 板块列表，存储从QMT获取的板块名称
type Sector struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SectorName string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"sector_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Sector) TableName() string {
	return "qmt_sector"
}

// SectorStock 板块成分股，板块到股票代码的关联记录
type SectorStock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SectorID  uint      `gorm:"not null;uniqueIndex:idx_sector_stock,priority:1" json:"sector_id"`
	StockCode string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_sector_stock,priority:2" json:"stock_code"`
	CreatedAt time.Time `json:"created_at"`
}

func (SectorStock) TableName() string {
	return "qmt_sector_stock"
}
