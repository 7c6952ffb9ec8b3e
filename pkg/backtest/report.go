package backtest

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// WriteReport 输出回测报告：汇总指标表与期末持仓表
func WriteReport(w io.Writer, r *Result) {
	fmt.Fprintln(w, "=== 回测结果 ===")

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"指标", "数值"})
	summary.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	summary.SetCenterSeparator("|")
	summary.SetAlignment(tablewriter.ALIGN_RIGHT)
	summary.Append([]string{"初始资金", strconv.FormatFloat(r.InitialCash, 'f', 2, 64)})
	summary.Append([]string{"最终资产", strconv.FormatFloat(r.FinalEquity, 'f', 2, 64)})
	summary.Append([]string{"总收益率", fmt.Sprintf("%.2f%%", r.TotalReturn*100)})
	summary.Append([]string{"最大回撤", fmt.Sprintf("%.2f%%", r.MaxDrawdown*100)})
	summary.Append([]string{"调仓次数", strconv.Itoa(r.Rebalances)})
	summary.Append([]string{"成交笔数", strconv.Itoa(len(r.Trades))})
	summary.Render()

	if len(r.Positions) == 0 {
		fmt.Fprintln(w, "期末无持仓")
		return
	}

	fmt.Fprintln(w, "\n=== 期末持仓 ===")
	holdings := tablewriter.NewWriter(w)
	holdings.SetHeader([]string{"行业", "股票", "数量", "成本价", "现价", "市值", "选股RSI"})
	holdings.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	holdings.SetCenterSeparator("|")
	holdings.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, pos := range r.Positions {
		price := r.LastPrices[pos.Code]
		holdings.Append([]string{
			pos.Industry,
			pos.Code,
			strconv.FormatInt(pos.Shares, 10),
			strconv.FormatFloat(pos.Cost, 'f', 2, 64),
			strconv.FormatFloat(price, 'f', 2, 64),
			strconv.FormatFloat(float64(pos.Shares)*price, 'f', 2, 64),
			strconv.FormatFloat(pos.RSI, 'f', 2, 64),
		})
	}
	holdings.Render()
}
