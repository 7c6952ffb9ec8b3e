package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	ta "github.com/banbox/banta"

	"QuantDataHub/pkg/logger"
)

// dayMSecs 日线周期毫秒数，喂给指标环境
const dayMSecs = int64(24 * time.Hour / time.Millisecond)

// Options RSI月度轮动策略参数
type Options struct {
	RSIPeriod   int     // RSI计算周期，默认14
	InitialCash float64 // 初始资金，默认100万
	Commission  float64 // 佣金费率，默认万一
	MinFee      float64 // 单笔最低佣金，默认5元
}

func (o *Options) applyDefaults() {
	if o.RSIPeriod <= 0 {
		o.RSIPeriod = 14
	}
	if o.InitialCash <= 0 {
		o.InitialCash = 1000000
	}
	if o.Commission <= 0 {
		o.Commission = 0.0001
	}
	if o.MinFee <= 0 {
		o.MinFee = 5.0
	}
}

// Trade 一笔成交记录
type Trade struct {
	Date     time.Time
	Code     string
	Industry string
	Side     string // buy / sell
	Price    float64
	Shares   int64
	Value    float64
}

// Position 持仓
type Position struct {
	Code     string
	Industry string
	Shares   int64
	Cost     float64 // 建仓成本价
	RSI      float64 // 选股时的RSI
}

// Result 回测结果
type Result struct {
	InitialCash  float64
	FinalEquity  float64
	TotalReturn  float64
	MaxDrawdown  float64
	Rebalances   int
	Trades       []Trade
	Positions    []Position // 期末持仓
	LastPrices   map[string]float64
	EquityCurve  []float64
	FailedStocks []string
}

// Engine RSI月度轮动回测引擎：每月末每个行业买入RSI最低的一只股票
type Engine struct {
	opts     Options
	industry IndustryMapping
	dataset  map[string][]Bar

	cash      float64
	positions map[string]*Position
	trades    []Trade
	equity    []float64

	envs   map[string]*ta.BarEnv
	cursor map[string]int // 各股票已消费到的bar下标
	prices map[string]float64
}

// NewEngine 创建回测引擎
func NewEngine(dataset map[string][]Bar, industry IndustryMapping, opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		opts:      opts,
		industry:  industry,
		dataset:   dataset,
		cash:      opts.InitialCash,
		positions: make(map[string]*Position),
		envs:      make(map[string]*ta.BarEnv),
		cursor:    make(map[string]int),
		prices:    make(map[string]float64),
	}
}

// Run 执行回测
func (e *Engine) Run() (*Result, error) {
	if len(e.dataset) == 0 {
		return nil, fmt.Errorf("没有可用的K线数据")
	}

	axis := e.buildDateAxis()
	logger.Info(fmt.Sprintf("回测开始，%d只股票，%d个交易日，初始资金%.2f",
		len(e.dataset), len(axis), e.cash))

	lastRebalanceMonth := 0
	for i, date := range axis {
		e.feedBars(date)

		needRebalance := false
		if lastRebalanceMonth == 0 {
			needRebalance = true // 首次建仓
		} else if isMonthEnd(axis, i) && int(date.Month()) != lastRebalanceMonth {
			needRebalance = true
		}

		if needRebalance {
			e.rebalance(date)
			lastRebalanceMonth = int(date.Month())
		}

		e.equity = append(e.equity, e.totalEquity())
	}

	final := e.totalEquity()
	result := &Result{
		InitialCash: e.opts.InitialCash,
		FinalEquity: final,
		TotalReturn: final/e.opts.InitialCash - 1,
		MaxDrawdown: maxDrawdown(e.equity),
		Rebalances:  countRebalances(e.trades),
		Trades:      e.trades,
		LastPrices:  e.prices,
		EquityCurve: e.equity,
	}
	for _, pos := range e.positions {
		result.Positions = append(result.Positions, *pos)
	}
	sort.Slice(result.Positions, func(i, j int) bool {
		return result.Positions[i].Industry < result.Positions[j].Industry
	})
	return result, nil
}

// buildDateAxis 取全部股票交易日期的并集并升序排列
func (e *Engine) buildDateAxis() []time.Time {
	seen := make(map[string]time.Time)
	for _, bars := range e.dataset {
		for _, b := range bars {
			seen[b.Date.Format("2006-01-02")] = b.Date
		}
	}
	axis := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		axis = append(axis, d)
	}
	sort.Slice(axis, func(i, j int) bool {
		return axis[i].Before(axis[j])
	})
	return axis
}

// feedBars 将当日各股票的bar喂入指标环境并更新最新价
func (e *Engine) feedBars(date time.Time) {
	for code, bars := range e.dataset {
		idx := e.cursor[code]
		if idx >= len(bars) || !bars[idx].Date.Equal(date) {
			continue
		}
		b := bars[idx]
		e.cursor[code] = idx + 1

		env, ok := e.envs[code]
		if !ok {
			env = &ta.BarEnv{
				TimeFrame: "1d",
				TFMSecs:   dayMSecs,
			}
			e.envs[code] = env
		}
		if err := env.OnBar(b.Date.UnixMilli(), b.Open, b.High, b.Low, b.Close, float64(b.Volume), 0); err != nil {
			logger.Warn(fmt.Sprintf("股票%s喂入%s的bar失败: %v", code, b.Date.Format("2006-01-02"), err))
			continue
		}
		e.prices[code] = b.Close
	}
}

// currentRSI 当前RSI值，无效时返回NaN
func (e *Engine) currentRSI(code string) float64 {
	env, ok := e.envs[code]
	if !ok {
		return math.NaN()
	}
	return ta.RSI(env.Close, e.opts.RSIPeriod).Get(0)
}

// selectStocks 每个行业选出RSI最低的一只股票
func (e *Engine) selectStocks() []Position {
	type candidate struct {
		code string
		rsi  float64
	}
	best := make(map[string]candidate)
	for code := range e.dataset {
		industry, ok := e.industry[code]
		if !ok {
			continue
		}
		rsi := e.currentRSI(code)
		if math.IsNaN(rsi) {
			continue
		}
		if cur, ok := best[industry]; !ok || rsi < cur.rsi {
			best[industry] = candidate{code: code, rsi: rsi}
		}
	}

	selected := make([]Position, 0, len(best))
	for industry, c := range best {
		selected = append(selected, Position{Code: c.code, Industry: industry, RSI: c.rsi})
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Industry < selected[j].Industry
	})
	return selected
}

// rebalance 调仓：清空现有持仓，按等分资金买入各行业RSI最低的股票，
// 买入数量向下取整到100股，资金不足时跳过
func (e *Engine) rebalance(date time.Time) {
	selected := e.selectStocks()
	if len(selected) == 0 {
		logger.Warn(fmt.Sprintf("%s没有可选择的股票，跳过调仓", date.Format("2006-01-02")))
		return
	}

	// 平仓所有现有持仓
	for code, pos := range e.positions {
		price, ok := e.prices[code]
		if !ok {
			continue
		}
		value := float64(pos.Shares) * price
		e.cash += value - e.fee(value)
		e.trades = append(e.trades, Trade{
			Date: date, Code: code, Industry: pos.Industry,
			Side: "sell", Price: price, Shares: pos.Shares, Value: value,
		})
		delete(e.positions, code)
	}

	targetPerStock := e.cash / float64(len(selected))
	for _, sel := range selected {
		price, ok := e.prices[sel.Code]
		if !ok || price <= 0 {
			continue
		}
		shares := int64(targetPerStock/price/100) * 100
		if shares <= 0 {
			continue
		}
		cost := float64(shares) * price
		total := cost + e.fee(cost)
		if total > e.cash {
			logger.Debug(fmt.Sprintf("资金不足，跳过买入%s", sel.Code))
			continue
		}
		e.cash -= total
		e.positions[sel.Code] = &Position{
			Code: sel.Code, Industry: sel.Industry,
			Shares: shares, Cost: price, RSI: sel.RSI,
		}
		e.trades = append(e.trades, Trade{
			Date: date, Code: sel.Code, Industry: sel.Industry,
			Side: "buy", Price: price, Shares: shares, Value: cost,
		})
	}

	logger.Info(fmt.Sprintf("%s调仓完成，选中%d个行业，持仓%d只，现金%.2f",
		date.Format("2006-01-02"), len(selected), len(e.positions), e.cash))
}

// fee 计算佣金，不低于最低佣金
func (e *Engine) fee(value float64) float64 {
	fee := value * e.opts.Commission
	if fee < e.opts.MinFee {
		fee = e.opts.MinFee
	}
	return fee
}

// totalEquity 现金加持仓市值
func (e *Engine) totalEquity() float64 {
	equity := e.cash
	for code, pos := range e.positions {
		if price, ok := e.prices[code]; ok {
			equity += float64(pos.Shares) * price
		}
	}
	return equity
}

// isMonthEnd 当前日期是否为日期轴上该月的最后一个交易日
func isMonthEnd(axis []time.Time, i int) bool {
	if i+1 >= len(axis) {
		return true
	}
	return axis[i].Month() != axis[i+1].Month() || axis[i].Year() != axis[i+1].Year()
}

// maxDrawdown 按权益曲线计算最大回撤比例
func maxDrawdown(equity []float64) float64 {
	var peak, maxDD float64
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// countRebalances 按调仓日期统计调仓次数
func countRebalances(trades []Trade) int {
	seen := make(map[string]bool)
	for _, t := range trades {
		seen[t.Date.Format("2006-01-02")] = true
	}
	return len(seen)
}
