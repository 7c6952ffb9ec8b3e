package collector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"QuantDataHub/pkg/logger"
	"QuantDataHub/pkg/model"
)

// QMTAdapter QMT数据源适配器，将网关返回的原始数据规范化为内部模型
type QMTAdapter struct {
	client *QMTClient
}

// NewQMTAdapter 创建QMT适配器
func NewQMTAdapter(baseURL string, timeout time.Duration) *QMTAdapter {
	return &QMTAdapter{
		client: NewQMTClient(baseURL, timeout),
	}
}

// round2 保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FetchKlines 获取单只股票的K线数据，时间升序
func (a *QMTAdapter) FetchKlines(stockCode string, period model.Period, start, end time.Time) ([]model.Kline, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("不支持的K线周期: %s", period)
	}

	data, err := a.client.GetMarketData(
		[]string{stockCode},
		period.QMTPeriod(),
		start.Format("20060102"),
		end.Format("20060102"),
	)
	if err != nil {
		return nil, err
	}

	series, ok := data[stockCode]
	if !ok {
		return nil, nil
	}
	return a.normalize(stockCode, series), nil
}

// normalize 将列式行情转换为K线记录，OHLC保留两位小数
func (a *QMTAdapter) normalize(stockCode string, series MarketSeries) []model.Kline {
	n := len(series.Time)
	klines := make([]model.Kline, 0, n)
	for i := 0; i < n; i++ {
		k := model.Kline{
			StockCode: stockCode,
			Time:      time.UnixMilli(series.Time[i]).Local(),
			Open:      round2(series.Open[i]),
			High:      round2(series.High[i]),
			Low:       round2(series.Low[i]),
			Close:     round2(series.Close[i]),
			Volume:    series.Volume[i],
			Amount:    series.Amount[i],
		}
		if !k.Valid() {
			logger.Warn(fmt.Sprintf("股票%s在%s的K线OHLC异常: O=%.2f H=%.2f L=%.2f C=%.2f",
				stockCode, k.Time.Format("2006-01-02"), k.Open, k.High, k.Low, k.Close))
		}
		klines = append(klines, k)
	}
	sort.Slice(klines, func(i, j int) bool {
		return klines[i].Time.Before(klines[j].Time)
	})
	return klines
}

// DownloadHistory 触发网关批量下载历史数据，失败仅告警不中断
func (a *QMTAdapter) DownloadHistory(stockCodes []string, period model.Period, start, end time.Time, incrementally bool) error {
	return a.client.DownloadHistoryData(
		stockCodes,
		period.QMTPeriod(),
		start.Format("20060102"),
		end.Format("20060102"),
		incrementally,
	)
}

// FetchSectorList 获取全部板块名称
func (a *QMTAdapter) FetchSectorList() ([]string, error) {
	return a.client.GetSectorList()
}

// FetchSectorStocks 获取板块成分股代码
func (a *QMTAdapter) FetchSectorStocks(sectorName string) ([]string, error) {
	return a.client.GetStockListInSector(sectorName)
}

// FetchDividFactors 获取除权数据并规范化
func (a *QMTAdapter) FetchDividFactors(stockCode string, start, end time.Time) ([]model.DividFactor, error) {
	rows, err := a.client.GetDividFactors(
		stockCode,
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}

	factors := make([]model.DividFactor, 0, len(rows))
	for _, r := range rows {
		factors = append(factors, model.DividFactor{
			StockCode:  stockCode,
			Time:       r.Time,
			DividDate:  model.DividDateOf(r.Time),
			Interest:   r.Interest,
			StockBonus: r.StockBonus,
			StockGift:  r.StockGift,
			AllotNum:   r.AllotNum,
			AllotPrice: r.AllotPrice,
			Gugai:      r.Gugai,
			DR:         r.DR,
		})
	}
	return factors, nil
}

// Ping 检查QMT网关连通性
func (a *QMTAdapter) Ping() error {
	return a.client.Ping()
}
