package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"spyglass/internal/analysis/live"
	"spyglass/internal/backtest"
)

// BacktestTable 渲染回测汇总 + 成交明细（终端输出用）。
func BacktestTable(rep backtest.Report) string {
	summary := table.NewWriter()
	summary.SetStyle(table.StyleLight)
	summary.SetTitle(fmt.Sprintf("Backtest %s", rep.Symbol))
	summary.AppendRows([]table.Row{
		{"Total Trades", rep.TotalTrades},
		{"Win Rate", fmt.Sprintf("%.2f%%", rep.WinRate*100)},
		{"Total P&L", fmt.Sprintf("$%.2f", rep.TotalPnL)},
		{"Return", fmt.Sprintf("%.2f%%", rep.ReturnPct)},
		{"Final Capital", fmt.Sprintf("$%.2f", rep.FinalCapital)},
	})
	out := summary.Render() + "\n"

	if len(rep.Positions) == 0 {
		return out
	}
	trades := table.NewWriter()
	trades.SetStyle(table.StyleLight)
	trades.AppendHeader(table.Row{"#", "Kind", "Strike", "Qty", "Entry", "Exit", "Reason", "P&L"})
	for i, pos := range rep.Positions {
		exit := "-"
		reason := "open"
		if pos.Closed {
			exit = fmt.Sprintf("%.2f", pos.ExitPrice)
			reason = pos.ExitReason
		}
		trades.AppendRow(table.Row{
			i + 1, pos.Kind.String(),
			fmt.Sprintf("%.2f", pos.Strike), pos.Quantity,
			fmt.Sprintf("%.2f", pos.EntryPrice), exit, reason,
			fmt.Sprintf("%.2f", pos.PnL(contractMultiplier)),
		})
	}
	return out + trades.Render() + "\n"
}

// LiveTable 渲染实时分析结论。
func LiveTable(a live.Analysis) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Live Analysis %s", a.Symbol))
	rows := []table.Row{
		{"Price", fmt.Sprintf("$%.2f", a.Price)},
		{"Signal", a.Signal.String()},
		{"RSI", fmt.Sprintf("%.2f", a.RSI)},
		{"MACD", fmt.Sprintf("%.2f", a.MACD)},
		{"Price vs SMA20", fmt.Sprintf("%.2f%%", a.PriceVsSMA20Pct)},
	}
	if a.VIXLevel != nil {
		rows = append(rows, table.Row{"VIX", fmt.Sprintf("%.2f", *a.VIXLevel)})
	}
	rows = append(rows, table.Row{"Recommendation", a.Recommendation})
	t.AppendRows(rows)
	return t.Render() + "\n"
}
