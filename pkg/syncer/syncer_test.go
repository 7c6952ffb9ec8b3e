package syncer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/messaging"
	"QuantDataHub/pkg/model"
)

// fakeSource 测试用数据源，覆盖全部采集接口
type fakeSource struct {
	mu sync.Mutex

	tradeDates []time.Time
	sectors    []string
	stocks     map[string][]string
	klines     map[string][]model.Kline
	dividends  map[string][]model.DividFactor

	failKlines    map[string]bool // 指定股票拉取K线时报错
	fetchRequests []fetchRequest  // 记录FetchKlines调用参数
}

type fetchRequest struct {
	code  string
	start time.Time
	end   time.Time
}

func (f *fakeSource) FetchTradeDates() ([]time.Time, error) {
	return f.tradeDates, nil
}

func (f *fakeSource) FetchSectorList() ([]string, error) {
	return f.sectors, nil
}

func (f *fakeSource) FetchSectorStocks(sectorName string) ([]string, error) {
	codes, ok := f.stocks[sectorName]
	if !ok {
		return nil, fmt.Errorf("板块不存在: %s", sectorName)
	}
	return codes, nil
}

func (f *fakeSource) FetchKlines(stockCode string, period model.Period, start, end time.Time) ([]model.Kline, error) {
	f.mu.Lock()
	f.fetchRequests = append(f.fetchRequests, fetchRequest{code: stockCode, start: start, end: end})
	f.mu.Unlock()

	if f.failKlines[stockCode] {
		return nil, fmt.Errorf("模拟拉取失败")
	}
	var out []model.Kline
	for _, k := range f.klines[stockCode] {
		if !k.Time.Before(start) && !k.Time.After(end) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeSource) DownloadHistory(stockCodes []string, period model.Period, start, end time.Time, incrementally bool) error {
	return nil
}

func (f *fakeSource) FetchDividFactors(stockCode string, start, end time.Time) ([]model.DividFactor, error) {
	if f.failKlines[stockCode] {
		return nil, fmt.Errorf("模拟拉取失败")
	}
	return f.dividends[stockCode], nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func makeKline(code string, date time.Time, close float64) model.Kline {
	return model.Kline{
		StockCode: code, Time: date,
		Open: close - 0.5, High: close + 0.5, Low: close - 1, Close: close,
		Volume: 1000, Amount: close * 1000,
	}
}

func setupService(t *testing.T, src *fakeSource) (*Service, *database.MySQL) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:?_loc=auto"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接各自独立，并发worker必须复用同一连接
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := database.NewWithDB(gdb)
	require.NoError(t, db.AutoMigrate())

	cfg := &config.Config{}
	cfg.Sync.BenchmarkSector = "沪深A股"
	cfg.Sync.MaxWorkers = 2
	cfg.Sync.LookbackYears = 3

	svc := NewService(db, src, src, src, src, messaging.NopPublisher{}, cfg)
	return svc, db
}
