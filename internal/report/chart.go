package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"spyglass/internal/backtest"
	"spyglass/internal/market"
)

// 期权合约乘数，与回测引擎默认值一致。
const contractMultiplier = 100

// WriteChart 把行情 K 线与回测权益曲线渲染成单页 HTML。
func WriteChart(path string, candles []market.Candle, rep backtest.Report) error {
	if len(candles) == 0 {
		return fmt.Errorf("no candles to chart")
	}

	x := make([]string, len(candles))
	klineData := make([]opts.KlineData, len(candles))
	for i, c := range candles {
		x[i] = c.Time().Format("2006-01-02")
		klineData[i] = opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}}
	}
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s price", rep.Symbol)}),
		charts.WithDataZoomOpts(opts.DataZoom{Start: 0, End: 100}),
	)
	kline.SetXAxis(x).AddSeries("price", klineData)

	equity := equitySeries(candles, rep)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "equity curve"}),
	)
	lineData := make([]opts.LineData, len(equity))
	for i, v := range equity {
		lineData[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(x).AddSeries("equity", lineData)

	page := components.NewPage()
	page.AddCharts(kline, line)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

// equitySeries 按平仓时间把已实现盈亏累加到每根 K 线上。
func equitySeries(candles []market.Candle, rep backtest.Report) []float64 {
	initial := rep.FinalCapital - rep.TotalPnL
	out := make([]float64, len(candles))
	cum := initial
	for i, c := range candles {
		t := c.Time()
		for _, pos := range rep.Positions {
			if pos.Closed && pos.ExitTime.Equal(t) {
				cum += pos.PnL(contractMultiplier)
			}
		}
		out[i] = cum
	}
	return out
}
