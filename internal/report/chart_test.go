package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spyglass/internal/backtest"
	"spyglass/internal/market"
)

func chartCandles(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		base := 100 + float64(i)
		out[i] = market.Candle{
			OpenTime: int64(i) * 86400000,
			Open:     base - 0.5, High: base + 1, Low: base - 1, Close: base,
			Volume: 1000,
		}
	}
	return out
}

func TestEquitySeriesAccumulatesAtExit(t *testing.T) {
	candles := chartCandles(5)
	rep := backtest.Report{
		TotalPnL:     300,
		FinalCapital: 100300,
		Positions: []*backtest.Position{
			{Closed: true, ExitTime: time.UnixMilli(candles[2].OpenTime), ExitPrice: 4, EntryPrice: 3, Quantity: 3},
		},
	}
	equity := equitySeries(candles, rep)
	if len(equity) != 5 {
		t.Fatalf("权益曲线长度应与 K 线一致, 实际=%d", len(equity))
	}
	if math.Abs(equity[0]-100000) > 1e-9 || math.Abs(equity[1]-100000) > 1e-9 {
		t.Fatalf("平仓前应保持本金, 实际=%v", equity[:2])
	}
	want := 100000 + (4.0-3.0)*3*contractMultiplier
	for i := 2; i < 5; i++ {
		if math.Abs(equity[i]-want) > 1e-9 {
			t.Fatalf("平仓后第 %d 根权益应为 %.2f, 实际=%.2f", i, want, equity[i])
		}
	}
}

func TestWriteChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	rep := backtest.Report{Symbol: "^SPX", FinalCapital: 100000}
	if err := WriteChart(path, chartCandles(30), rep); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取输出失败: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "^SPX price") || !strings.Contains(body, "equity curve") {
		t.Fatalf("HTML 应包含两个图表标题")
	}
}

func TestWriteChartEmptyCandles(t *testing.T) {
	if err := WriteChart(filepath.Join(t.TempDir(), "x.html"), nil, backtest.Report{}); err == nil {
		t.Fatalf("空行情应报错")
	}
}
