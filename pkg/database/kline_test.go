package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDataHub/pkg/model"
)

func makeKline(code string, date time.Time, close float64) model.Kline {
	return model.Kline{
		StockCode: code,
		Time:      date,
		Open:      close - 0.5,
		High:      close + 0.5,
		Low:       close - 1,
		Close:     close,
		Volume:    1000,
		Amount:    close * 1000,
	}
}

func TestKlineUpsertBatch(t *testing.T) {
	db := setupTestDB(t)
	kdb := db.Kline(model.PeriodDaily)

	n, err := kdb.UpsertBatch([]model.Kline{
		makeKline("000001.SZ", day(2024, 1, 2), 10),
		makeKline("000001.SZ", day(2024, 1, 3), 10.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// 相同(stock_code, time)再次写入应更新而不是新增
	_, err = kdb.UpsertBatch([]model.Kline{
		makeKline("000001.SZ", day(2024, 1, 3), 11),
	})
	require.NoError(t, err)

	count, err := kdb.Count("000001.SZ")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	klines, err := kdb.GetRange("000001.SZ", day(2024, 1, 3), day(2024, 1, 3))
	require.NoError(t, err)
	require.Len(t, klines, 1)
	assert.Equal(t, 11.0, klines[0].Close)
}

func TestKlinePeriodsSeparateTables(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Kline(model.PeriodDaily).UpsertBatch([]model.Kline{
		makeKline("000001.SZ", day(2024, 1, 2), 10),
	})
	require.NoError(t, err)

	// 日K写入不应影响周K表
	count, err := db.Kline(model.PeriodWeekly).Count("000001.SZ")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestKlineGetLatestTime(t *testing.T) {
	db := setupTestDB(t)
	kdb := db.Kline(model.PeriodDaily)

	_, ok, err := kdb.GetLatestTime("000001.SZ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = kdb.UpsertBatch([]model.Kline{
		makeKline("000001.SZ", day(2024, 1, 2), 10),
		makeKline("000001.SZ", day(2024, 1, 5), 10.5),
	})
	require.NoError(t, err)

	latest, ok, err := kdb.GetLatestTime("000001.SZ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, day(2024, 1, 5), latest)
}

func TestKlineGetRangeOrder(t *testing.T) {
	db := setupTestDB(t)
	kdb := db.Kline(model.PeriodDaily)

	_, err := kdb.UpsertBatch([]model.Kline{
		makeKline("000001.SZ", day(2024, 1, 5), 11),
		makeKline("000001.SZ", day(2024, 1, 2), 10),
		makeKline("000002.SZ", day(2024, 1, 3), 20),
	})
	require.NoError(t, err)

	klines, err := kdb.GetRange("000001.SZ", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, klines, 2)
	assert.Equal(t, day(2024, 1, 2), klines[0].Time)
	assert.Equal(t, day(2024, 1, 5), klines[1].Time)
}

func TestKlineDeleteRange(t *testing.T) {
	db := setupTestDB(t)
	kdb := db.Kline(model.PeriodDaily)

	_, err := kdb.UpsertBatch([]model.Kline{
		makeKline("000001.SZ", day(2024, 1, 2), 10),
		makeKline("000001.SZ", day(2024, 1, 3), 10.5),
		makeKline("000001.SZ", day(2024, 2, 1), 11),
	})
	require.NoError(t, err)

	deleted, err := kdb.DeleteRange("000001.SZ", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := kdb.Count("000001.SZ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
