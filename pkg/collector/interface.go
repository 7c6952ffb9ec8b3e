package collector

import (
	"time"

	"QuantDataHub/pkg/model"
)

// KlineSource K线数据获取接口
type KlineSource interface {
	FetchKlines(stockCode string, period model.Period, start, end time.Time) ([]model.Kline, error)
	DownloadHistory(stockCodes []string, period model.Period, start, end time.Time, incrementally bool) error
}

// SectorSource 板块数据获取接口
type SectorSource interface {
	FetchSectorList() ([]string, error)
	FetchSectorStocks(sectorName string) ([]string, error)
}

// DividendSource 除权数据获取接口
type DividendSource interface {
	FetchDividFactors(stockCode string, start, end time.Time) ([]model.DividFactor, error)
}

// CalendarSource 交易日历获取接口
type CalendarSource interface {
	FetchTradeDates() ([]time.Time, error)
}
