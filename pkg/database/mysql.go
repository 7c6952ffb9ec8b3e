package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/model"
)

// MySQL MySQL数据库连接
type MySQL struct {
	db *gorm.DB
}

// NewMySQL 创建新的MySQL连接
func NewMySQL(cfg *config.Config) (*MySQL, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("测试数据库连接失败: %w", err)
	}

	return &MySQL{db: db}, nil
}

// NewWithDB 基于已有gorm连接创建包装，主要用于单元测试
func NewWithDB(db *gorm.DB) *MySQL {
	return &MySQL{db: db}
}

// AutoMigrate 建表迁移，三张K线表共用同一模型结构
func (m *MySQL) AutoMigrate() error {
	if err := m.db.AutoMigrate(
		&model.TradeCalendar{},
		&model.Sector{},
		&model.SectorStock{},
		&model.DividFactor{},
		&model.SyncRun{},
	); err != nil {
		return fmt.Errorf("迁移基础表失败: %w", err)
	}

	for _, p := range []model.Period{model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly} {
		if err := m.db.Table(p.TableName()).AutoMigrate(&model.Kline{}); err != nil {
			return fmt.Errorf("迁移K线表%s失败: %w", p.TableName(), err)
		}
	}
	return nil
}

// Ping 检查数据库连通性
func (m *MySQL) Ping() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB 暴露底层gorm连接
func (m *MySQL) DB() *gorm.DB {
	return m.db
}
