package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"QuantDataHub/pkg/logger"
)

// AKShareAdapter AKShare数据适配器，用于获取交易日历
type AKShareAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewAKShareAdapter 创建新的AKShare数据适配器
func NewAKShareAdapter(baseURL string, timeout time.Duration) *AKShareAdapter {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AKShareAdapter{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchTradeDates 获取全部A股交易日，返回升序日期列表
func (a *AKShareAdapter) FetchTradeDates() ([]time.Time, error) {
	apiURL := fmt.Sprintf("%s/api/public/tool_trade_date_hist_sina", a.baseURL)

	// 添加重试机制，避免接口偶发失败
	var resp *http.Response
	var err error
	for retries := 0; retries < 3; retries++ {
		resp, err = a.httpClient.Get(apiURL)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("API返回错误状态码: %d", resp.StatusCode)
		}
		logger.Warn(fmt.Sprintf("获取交易日历失败: %v, 重试 %d/3", err, retries+1))
		time.Sleep(time.Duration(3*(retries+1)) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("获取交易日历失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	var rows []struct {
		TradeDate string `json:"trade_date"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("解析交易日历失败: %w", err)
	}

	dates := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		d, err := parseTradeDate(r.TradeDate)
		if err != nil {
			logger.Warn(fmt.Sprintf("跳过无法解析的交易日: %s", r.TradeDate))
			continue
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("交易日历为空")
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates, nil
}

// Ping 检查AKShare网关是否可达
func (a *AKShareAdapter) Ping() error {
	resp, err := a.httpClient.Get(a.baseURL + "/")
	if err != nil {
		return fmt.Errorf("AKShare网关不可达: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("AKShare网关异常，状态码: %d", resp.StatusCode)
	}
	return nil
}

// parseTradeDate 兼容两种日期格式
func parseTradeDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("无效日期: %s", s)
}
