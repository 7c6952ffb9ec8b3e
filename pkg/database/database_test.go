package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"QuantDataHub/pkg/model"
)

// setupTestDB 创建内存SQLite数据库供各数据访问测试使用
func setupTestDB(t *testing.T) *MySQL {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_loc=auto"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "初始化测试数据库失败")

	m := NewWithDB(db)
	require.NoError(t, m.AutoMigrate(), "建表失败")
	return m
}

// SQLite的索引名全库唯一，三张K线表必须各自生成索引名才能迁移成功
func TestAutoMigrateAllKlineTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:?_loc=auto"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	m := NewWithDB(db)
	require.NoError(t, m.AutoMigrate())

	for _, p := range []model.Period{model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly} {
		require.True(t, db.Migrator().HasTable(p.TableName()), "缺少表%s", p.TableName())

		// 唯一约束存在时同一(股票,时间)的两次写入应合并为一条
		k := model.Kline{
			StockCode: "600000.SH",
			Time:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.Local),
			Open:      10, High: 10.5, Low: 9.8, Close: 10.2, Volume: 1000, Amount: 10200,
		}
		_, err := m.Kline(p).UpsertBatch([]model.Kline{k})
		require.NoError(t, err)
		k.Close = 10.3
		_, err = m.Kline(p).UpsertBatch([]model.Kline{k})
		require.NoError(t, err)

		count, err := m.Kline(p).Count("600000.SH")
		require.NoError(t, err)
		require.Equal(t, int64(1), count, "表%s的唯一索引未生效", p.TableName())
	}
}
