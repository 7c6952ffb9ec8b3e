package database

import (
	"fmt"

	"gorm.io/gorm"

	"QuantDataHub/pkg/model"
)

// SectorDB 板块数据访问
type SectorDB struct {
	db *gorm.DB
}

func (m *MySQL) Sector() *SectorDB {
	return &SectorDB{db: m.db}
}

// Create 创建板块记录
func (s *SectorDB) Create(sector *model.Sector) error {
	if err := s.db.Create(sector).Error; err != nil {
		return fmt.Errorf("创建板块失败: %w", err)
	}
	return nil
}

// GetByName 根据板块名获取板块
func (s *SectorDB) GetByName(name string) (*model.Sector, error) {
	var sector model.Sector
	err := s.db.Where("sector_name = ?", name).First(&sector).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("查询板块失败: %w", err)
	}
	return &sector, nil
}

// List 获取所有板块
func (s *SectorDB) List() ([]model.Sector, error) {
	var sectors []model.Sector
	if err := s.db.Order("id ASC").Find(&sectors).Error; err != nil {
		return nil, fmt.Errorf("查询板块列表失败: %w", err)
	}
	return sectors, nil
}

// ListByPrefix 获取名称匹配前缀的板块
func (s *SectorDB) ListByPrefix(prefix string) ([]model.Sector, error) {
	var sectors []model.Sector
	err := s.db.Where("sector_name LIKE ?", prefix+"%").
		Order("sector_name ASC").
		Find(&sectors).Error
	if err != nil {
		return nil, fmt.Errorf("按前缀查询板块失败: %w", err)
	}
	return sectors, nil
}

// Update 更新板块记录
func (s *SectorDB) Update(sector *model.Sector) error {
	if err := s.db.Save(sector).Error; err != nil {
		return fmt.Errorf("更新板块失败: %w", err)
	}
	return nil
}

// DeleteAll 删除所有板块数据并返回删除的数量
func (s *SectorDB) DeleteAll() (int64, error) {
	result := s.db.Where("1 = 1").Delete(&model.Sector{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除板块数据失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SectorStockDB 板块成分股数据访问
type SectorStockDB struct {
	db *gorm.DB
}

func (m *MySQL) SectorStock() *SectorStockDB {
	return &SectorStockDB{db: m.db}
}

// ReplaceForSector 替换某板块的全部成分股：先删后批量插入，事务内完成
func (s *SectorStockDB) ReplaceForSector(sectorID uint, stockCodes []string) (int, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sector_id = ?", sectorID).Delete(&model.SectorStock{}).Error; err != nil {
			return err
		}
		if len(stockCodes) == 0 {
			return nil
		}
		stocks := make([]model.SectorStock, 0, len(stockCodes))
		for _, code := range stockCodes {
			stocks = append(stocks, model.SectorStock{SectorID: sectorID, StockCode: code})
		}
		return tx.CreateInBatches(stocks, 500).Error
	})
	if err != nil {
		return 0, fmt.Errorf("替换板块成分股失败: %w", err)
	}
	return len(stockCodes), nil
}

// GetBySectorName 获取指定板块名的全部成分股记录
func (s *SectorStockDB) GetBySectorName(sectorName string) ([]model.SectorStock, error) {
	var stocks []model.SectorStock
	err := s.db.Joins("JOIN qmt_sector ON qmt_sector.id = qmt_sector_stock.sector_id").
		Where("qmt_sector.sector_name = ?", sectorName).
		Order("qmt_sector_stock.stock_code ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, fmt.Errorf("查询板块成分股失败: %w", err)
	}
	return stocks, nil
}

// GetCodesBySectorName 获取指定板块名的成分股代码列表（去重升序）
func (s *SectorStockDB) GetCodesBySectorName(sectorName string) ([]string, error) {
	stocks, err := s.GetBySectorName(sectorName)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stocks))
	codes := make([]string, 0, len(stocks))
	for _, stock := range stocks {
		if seen[stock.StockCode] {
			continue
		}
		seen[stock.StockCode] = true
		codes = append(codes, stock.StockCode)
	}
	return codes, nil
}

// DeleteBySectorID 删除某板块的全部成分股
func (s *SectorStockDB) DeleteBySectorID(sectorID uint) (int64, error) {
	result := s.db.Where("sector_id = ?", sectorID).Delete(&model.SectorStock{})
	if result.Error != nil {
		return 0, fmt.Errorf("删除板块成分股失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
