package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"QuantDataHub/pkg/cache"
	"QuantDataHub/pkg/config"
	"QuantDataHub/pkg/database"
	"QuantDataHub/pkg/model"
	"QuantDataHub/pkg/syncer"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func setupRouter(t *testing.T) (*gin.Engine, *database.MySQL) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db := database.NewWithDB(gdb)
	require.NoError(t, db.AutoMigrate())

	handlers := NewHandlers(db, cache.NewKlineCache(db, nil, 0), nil)
	server := NewServer("0", 0, 0)
	server.SetupRoutes(handlers)
	return server.Router(), db
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)
	w := doRequest(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "GET", "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetCalendar(t *testing.T) {
	router, db := setupRouter(t)
	_, err := db.Calendar().BatchCreate([]model.TradeCalendar{
		model.NewTradeCalendar(day(2024, 1, 2)),
		model.NewTradeCalendar(day(2024, 1, 3)),
	})
	require.NoError(t, err)

	w := doRequest(t, router, "GET", "/api/v1/calendar?start=2024-01-01&end=2024-01-31", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	// 缺少参数应返回400
	w = doRequest(t, router, "GET", "/api/v1/calendar?start=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 日期格式错误应返回400
	w = doRequest(t, router, "GET", "/api/v1/calendar?start=20240101&end=2024-01-31", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIsTradeDate(t *testing.T) {
	router, db := setupRouter(t)
	_, err := db.Calendar().BatchCreate([]model.TradeCalendar{
		model.NewTradeCalendar(day(2024, 1, 2)),
	})
	require.NoError(t, err)

	w := doRequest(t, router, "GET", "/api/v1/calendar/is-trade-date?date=2024-01-02", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		IsTradeDate bool `json:"is_trade_date"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsTradeDate)
}

func TestGetNextTradeDateNotFound(t *testing.T) {
	router, _ := setupRouter(t)
	w := doRequest(t, router, "GET", "/api/v1/calendar/next?date=2024-01-02", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSector(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, "POST", "/api/v1/sectors", `{"sector_name":"沪深A股"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	// 重复创建应返回409
	w = doRequest(t, router, "POST", "/api/v1/sectors", `{"sector_name":"沪深A股"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 缺少字段应返回400
	w = doRequest(t, router, "POST", "/api/v1/sectors", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSectorStocks(t *testing.T) {
	router, db := setupRouter(t)
	sector := &model.Sector{SectorName: "沪深A股"}
	require.NoError(t, db.Sector().Create(sector))
	_, err := db.SectorStock().ReplaceForSector(sector.ID, []string{"000001.SZ"})
	require.NoError(t, err)

	w := doRequest(t, router, "GET", "/api/v1/sectors/沪深A股/stocks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"000001.SZ"}, resp.Data)

	w = doRequest(t, router, "GET", "/api/v1/sectors/不存在/stocks", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetKlines(t *testing.T) {
	router, db := setupRouter(t)
	_, err := db.Kline(model.PeriodDaily).UpsertBatch([]model.Kline{{
		StockCode: "000001.SZ", Time: day(2024, 1, 2),
		Open: 9.5, High: 10.5, Low: 9, Close: 10, Volume: 1000, Amount: 10000,
	}})
	require.NoError(t, err)

	w := doRequest(t, router, "GET",
		"/api/v1/klines?code=000001.SZ&start=2024-01-01&end=2024-01-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count  int    `json:"count"`
		Period string `json:"period"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "daily", resp.Period)

	// 无效周期应返回400
	w = doRequest(t, router, "GET",
		"/api/v1/klines?code=000001.SZ&period=hourly&start=2024-01-01&end=2024-01-31", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 缺少code应返回400
	w = doRequest(t, router, "GET", "/api/v1/klines?start=2024-01-01&end=2024-01-31", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDividends(t *testing.T) {
	router, db := setupRouter(t)
	_, err := db.Dividend().UpsertBatch([]model.DividFactor{{
		StockCode: "000001.SZ", Time: day(2024, 5, 20).UnixMilli(),
		DividDate: day(2024, 5, 20), Interest: 0.3,
	}})
	require.NoError(t, err)

	w := doRequest(t, router, "GET",
		"/api/v1/dividends?code=000001.SZ&start=2024-01-01&end=2024-12-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestListSyncRuns(t *testing.T) {
	router, db := setupRouter(t)
	run, err := db.SyncRun().Start(model.JobKlines)
	require.NoError(t, err)
	require.NoError(t, db.SyncRun().Finish(run, 10, 10, 0, ""))

	w := doRequest(t, router, "GET", "/api/v1/sync/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestTriggerSyncInvalidJob(t *testing.T) {
	router, _ := setupRouter(t)
	w := doRequest(t, router, "POST", "/api/v1/sync/unknown", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// fakeTriggerSource 固定返回两个交易日，其余数据源接口返回空
type fakeTriggerSource struct{}

func (fakeTriggerSource) FetchTradeDates() ([]time.Time, error) {
	return []time.Time{day(2024, 1, 2), day(2024, 1, 3)}, nil
}

func (fakeTriggerSource) FetchKlines(stockCode string, period model.Period, start, end time.Time) ([]model.Kline, error) {
	return nil, nil
}

func (fakeTriggerSource) DownloadHistory(stockCodes []string, period model.Period, start, end time.Time, incrementally bool) error {
	return nil
}

func (fakeTriggerSource) FetchSectorList() ([]string, error) { return nil, nil }

func (fakeTriggerSource) FetchSectorStocks(sectorName string) ([]string, error) { return nil, nil }

func (fakeTriggerSource) FetchDividFactors(stockCode string, start, end time.Time) ([]model.DividFactor, error) {
	return nil, nil
}

func TestTriggerSyncCalendar(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 任务在独立goroutine中执行，内存库必须复用同一连接
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := database.NewWithDB(gdb)
	require.NoError(t, db.AutoMigrate())

	cfg := &config.Config{}
	cfg.Sync.BenchmarkSector = "沪深A股"
	cfg.Sync.MaxWorkers = 1
	cfg.Sync.LookbackYears = 1
	src := fakeTriggerSource{}
	svc := syncer.NewService(db, src, src, src, src, nil, cfg)

	handlers := NewHandlers(db, cache.NewKlineCache(db, nil, 0), svc)
	server := NewServer("0", 0, 0)
	server.SetupRoutes(handlers)
	router := server.Router()

	w := doRequest(t, router, "POST", "/api/v1/sync/calendar", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "accepted")

	// 任务异步执行，轮询等待执行记录落库
	require.Eventually(t, func() bool {
		runs, err := db.SyncRun().ListRecent(1)
		if err != nil || len(runs) == 0 || runs[0].FinishedAt == nil {
			return false
		}
		return runs[0].Job == model.JobCalendar && runs[0].Succeeded > 0
	}, 3*time.Second, 20*time.Millisecond)

	cals, err := db.Calendar().GetRange(day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Len(t, cals, 2)
}
