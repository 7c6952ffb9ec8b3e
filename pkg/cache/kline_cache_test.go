package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func setupDB(t *testing.T) *database.MySQL {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db := database.NewWithDB(gdb)
	require.NoError(t, db.AutoMigrate())
	return db
}

func seedKline(t *testing.T, db *database.MySQL, code string, date time.Time, close float64) {
	t.Helper()
	_, err := db.Kline(model.PeriodDaily).UpsertBatch([]model.Kline{{
		StockCode: code, Time: date,
		Open: close - 0.5, High: close + 0.5, Low: close - 1, Close: close,
		Volume: 1000, Amount: close * 1000,
	}})
	require.NoError(t, err)
}

func TestKlineCacheNilRedisBypass(t *testing.T) {
	db := setupDB(t)
	seedKline(t, db, "000001.SZ", day(2024, 1, 2), 10)

	c := NewKlineCache(db, nil, 0)
	klines, err := c.GetRange(context.Background(), model.PeriodDaily, "000001.SZ",
		day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Len(t, klines, 1)
}

func TestKlineCacheMissThenFill(t *testing.T) {
	db := setupDB(t)
	seedKline(t, db, "000001.SZ", day(2024, 1, 2), 10)

	rdb, mock := redismock.NewClientMock()
	c := NewKlineCache(db, rdb, time.Minute)

	key := c.cacheKey(model.PeriodDaily, "000001.SZ", day(2024, 1, 1), day(2024, 1, 31))
	mock.ExpectGet(key).RedisNil()
	mock.Regexp().ExpectSet(key, `.*`, time.Minute).SetVal("OK")

	klines, err := c.GetRange(context.Background(), model.PeriodDaily, "000001.SZ",
		day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Len(t, klines, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKlineCacheHit(t *testing.T) {
	// 命中缓存时不访问数据库，数据库中不放数据以验证
	db := setupDB(t)

	rdb, mock := redismock.NewClientMock()
	c := NewKlineCache(db, rdb, time.Minute)

	cached := []model.Kline{{StockCode: "000001.SZ", Time: day(2024, 1, 2), Close: 10}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	key := c.cacheKey(model.PeriodDaily, "000001.SZ", day(2024, 1, 1), day(2024, 1, 31))
	mock.ExpectGet(key).SetVal(string(payload))

	klines, err := c.GetRange(context.Background(), model.PeriodDaily, "000001.SZ",
		day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, klines, 1)
	assert.Equal(t, 10.0, klines[0].Close)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKlineCacheKeyEscaping(t *testing.T) {
	c := NewKlineCache(nil, nil, 0)
	key := c.cacheKey(model.PeriodDaily, "BAD CODE:1", day(2024, 1, 1), day(2024, 1, 2))
	assert.Equal(t, "klines:daily:BAD_CODE_1:20240101:20240102", key)
}
