package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// QMTClient QMT数据网关客户端，对接本机xtdata桥接服务
type QMTClient struct {
	BaseURL string
	Client  *http.Client
}

// QMTRequest QMT网关请求结构
type QMTRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// QMTResponse QMT网关响应结构
type QMTResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// MarketSeries 列式行情数据，各字段数组等长，与xtdata的返回结构一致
type MarketSeries struct {
	Time   []int64   `json:"time"` // 毫秒时间戳
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []int64   `json:"volume"`
	Amount []float64 `json:"amount"`
}

// DividRow 除权原始记录，字段名与xtdata的get_divid_factors保持一致
type DividRow struct {
	Time       int64   `json:"time"` // 毫秒时间戳
	Interest   float64 `json:"interest"`
	StockBonus float64 `json:"stockBonus"`
	StockGift  float64 `json:"stockGift"`
	AllotNum   float64 `json:"allotNum"`
	AllotPrice float64 `json:"allotPrice"`
	Gugai      float64 `json:"gugai"`
	DR         float64 `json:"dr"`
}

// NewQMTClient 创建新的QMT网关客户端
func NewQMTClient(baseURL string, timeout time.Duration) *QMTClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &QMTClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Execute 执行QMT网关请求并将data解码到out
func (c *QMTClient) Execute(method string, params interface{}, out interface{}) error {
	req := QMTRequest{
		Method: method,
		Params: params,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequest("POST", c.BaseURL+"/api", bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("执行HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("网关返回非200状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	var qmtResp QMTResponse
	if err := json.Unmarshal(body, &qmtResp); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}

	if qmtResp.Code != 0 {
		return fmt.Errorf("网关返回错误: %s", qmtResp.Msg)
	}

	if out != nil && len(qmtResp.Data) > 0 {
		if err := json.Unmarshal(qmtResp.Data, out); err != nil {
			return fmt.Errorf("解析data失败: %w", err)
		}
	}
	return nil
}

// GetSectorList 获取板块列表
func (c *QMTClient) GetSectorList() ([]string, error) {
	var sectors []string
	if err := c.Execute("get_sector_list", nil, &sectors); err != nil {
		return nil, fmt.Errorf("获取板块列表失败: %w", err)
	}
	return sectors, nil
}

// GetStockListInSector 获取板块成分股列表
func (c *QMTClient) GetStockListInSector(sectorName string) ([]string, error) {
	params := map[string]interface{}{
		"sector_name": sectorName,
	}
	var codes []string
	if err := c.Execute("get_stock_list_in_sector", params, &codes); err != nil {
		return nil, fmt.Errorf("获取板块[%s]成分股失败: %w", sectorName, err)
	}
	return codes, nil
}

// GetMarketData 获取行情数据，key为股票代码，时间格式YYYYMMDD
func (c *QMTClient) GetMarketData(stockCodes []string, period, startTime, endTime string) (map[string]MarketSeries, error) {
	params := map[string]interface{}{
		"field_list": []string{"time", "open", "high", "low", "close", "volume", "amount"},
		"stock_list": stockCodes,
		"period":     period,
		"start_time": startTime,
		"end_time":   endTime,
		"count":      -1,
		"fill_data":  false,
	}
	data := make(map[string]MarketSeries)
	if err := c.Execute("get_market_data", params, &data); err != nil {
		return nil, fmt.Errorf("获取行情数据失败: %w", err)
	}
	return data, nil
}

// GetDividFactors 获取除权数据，日期格式YYYY-MM-DD
func (c *QMTClient) GetDividFactors(stockCode, startDate, endDate string) ([]DividRow, error) {
	params := map[string]interface{}{
		"stock_code": stockCode,
		"start_date": startDate,
		"end_date":   endDate,
	}
	var rows []DividRow
	if err := c.Execute("get_divid_factors", params, &rows); err != nil {
		return nil, fmt.Errorf("获取股票%s除权数据失败: %w", stockCode, err)
	}
	return rows, nil
}

// DownloadHistoryData 触发网关批量下载历史数据到QMT本地缓存
func (c *QMTClient) DownloadHistoryData(stockCodes []string, period, startTime, endTime string, incrementally bool) error {
	params := map[string]interface{}{
		"stock_list":    stockCodes,
		"period":        period,
		"start_time":    startTime,
		"end_time":      endTime,
		"incrementally": incrementally,
	}
	if err := c.Execute("download_history_data2", params, nil); err != nil {
		return fmt.Errorf("批量下载历史数据失败: %w", err)
	}
	return nil
}

// Ping 网关健康检查
func (c *QMTClient) Ping() error {
	resp, err := c.Client.Get(c.BaseURL + "/health")
	if err != nil {
		return fmt.Errorf("QMT网关不可达: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("QMT网关状态异常: %d", resp.StatusCode)
	}
	return nil
}
