package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"spyglass/internal/market"
)

// 各指标的固定参数。沿用业内常见默认值，与历史回测口径保持一致。
const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	bbPeriod = 20
	bbDev    = 2.0

	stochFastK = 14
	stochSlow  = 3

	trendPeriod  = 14
	mfiPeriod    = 14
	momPeriod    = 10
	volSMAPeriod = 20
	volWindow    = 20

	tradingDaysPerYear = 252
)

// LongestLookback 面板中最长的回看窗口（SMA200）。
// 行数少于该值的输入不会产生任何全定义行。
const LongestLookback = 200

// Compute 从 K 线序列计算完整指标面板。确定性、纯函数、无 I/O。
// 空或过短的输入返回无全定义行的面板而非错误。
func Compute(candles []market.Candle) *Panel {
	times := make([]int64, len(candles))
	for i, c := range candles {
		times[i] = c.OpenTime
	}
	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)
	volumes := market.Volumes(candles)

	p := newPanel(times, closes)
	n := p.Len()

	p.add(ColSMA10, 9, func() []float64 { return talib.Sma(closes, 10) })
	p.add(ColSMA20, 19, func() []float64 { return talib.Sma(closes, 20) })
	p.add(ColSMA50, 49, func() []float64 { return talib.Sma(closes, 50) })
	p.add(ColSMA200, 199, func() []float64 { return talib.Sma(closes, 200) })

	p.add(ColEMA12, 11, func() []float64 { return talib.Ema(closes, 12) })
	p.add(ColEMA26, 25, func() []float64 { return talib.Ema(closes, 26) })
	p.add(ColEMA50, 49, func() []float64 { return talib.Ema(closes, 50) })

	// MACD 回看 = (slow-1)+(signal-1)
	macdLookback := macdSlow + macdSignal - 2
	var macdLine, signalLine, histLine []float64
	if n > macdLookback {
		macdLine, signalLine, histLine = talib.Macd(closes, macdFast, macdSlow, macdSignal)
	}
	p.add(ColMACD, macdLookback, func() []float64 { return macdLine })
	p.add(ColMACDSignal, macdLookback, func() []float64 { return signalLine })
	p.add(ColMACDHist, macdLookback, func() []float64 { return histLine })

	p.add(ColRSI14, 14, func() []float64 { return rsiNeutralFlat(closes, 14) })
	p.add(ColRSI21, 21, func() []float64 { return rsiNeutralFlat(closes, 21) })

	stochLookback := (stochFastK - 1) + 2*(stochSlow-1)
	var stochK, stochD []float64
	if n > stochLookback {
		stochK, stochD = talib.Stoch(highs, lows, closes, stochFastK, stochSlow, talib.SMA, stochSlow, talib.SMA)
	}
	p.add(ColStochK, stochLookback, func() []float64 { return stochK })
	p.add(ColStochD, stochLookback, func() []float64 { return stochD })

	p.add(ColWillR, trendPeriod-1, func() []float64 { return talib.WillR(highs, lows, closes, trendPeriod) })
	p.add(ColCCI, trendPeriod-1, func() []float64 { return talib.Cci(highs, lows, closes, trendPeriod) })

	var bbUpper, bbMiddle, bbLower []float64
	if n > bbPeriod-1 {
		bbUpper, bbMiddle, bbLower = talib.BBands(closes, bbPeriod, bbDev, bbDev, talib.SMA)
	}
	p.add(ColBBUpper, bbPeriod-1, func() []float64 { return bbUpper })
	p.add(ColBBMiddle, bbPeriod-1, func() []float64 { return bbMiddle })
	p.add(ColBBLower, bbPeriod-1, func() []float64 { return bbLower })
	p.add(ColBBWidth, bbPeriod-1, func() []float64 {
		out := make([]float64, n)
		for i := range out {
			if bbMiddle[i] == 0 {
				out[i] = math.NaN()
				continue
			}
			out[i] = (bbUpper[i] - bbLower[i]) / bbMiddle[i]
		}
		return out
	})
	p.add(ColBBPosition, bbPeriod-1, func() []float64 {
		out := make([]float64, n)
		for i := range out {
			span := bbUpper[i] - bbLower[i]
			if span == 0 {
				// 带宽收敛为零（恒定价格），价格位于带中。
				out[i] = 0.5
				continue
			}
			out[i] = (closes[i] - bbLower[i]) / span
		}
		return out
	})

	p.add(ColATR, trendPeriod, func() []float64 { return talib.Atr(highs, lows, closes, trendPeriod) })
	p.add(ColSAR, 1, func() []float64 { return talib.Sar(highs, lows, 0.02, 0.2) })

	p.add(ColADX, 2*trendPeriod-1, func() []float64 { return talib.Adx(highs, lows, closes, trendPeriod) })
	p.add(ColPlusDI, trendPeriod, func() []float64 { return talib.PlusDI(highs, lows, closes, trendPeriod) })
	p.add(ColMinusDI, trendPeriod, func() []float64 { return talib.MinusDI(highs, lows, closes, trendPeriod) })

	p.add(ColMFI, mfiPeriod, func() []float64 { return talib.Mfi(highs, lows, closes, volumes, mfiPeriod) })
	p.add(ColOBV, 0, func() []float64 { return talib.Obv(closes, volumes) })

	var volSMA []float64
	if n > volSMAPeriod-1 {
		volSMA = talib.Sma(volumes, volSMAPeriod)
	}
	p.add(ColVolumeSMA, volSMAPeriod-1, func() []float64 { return volSMA })
	p.add(ColVolumeRatio, volSMAPeriod-1, func() []float64 {
		out := make([]float64, n)
		for i := range out {
			if volSMA[i] == 0 {
				out[i] = math.NaN()
				continue
			}
			out[i] = volumes[i] / volSMA[i]
		}
		return out
	})

	p.add(ColMomentum, momPeriod, func() []float64 { return talib.Mom(closes, momPeriod) })
	p.add(ColROC, momPeriod, func() []float64 { return talib.Roc(closes, momPeriod) })

	p.add(ColVolatility, volWindow, func() []float64 {
		returns := make([]float64, n)
		for i := 1; i < n; i++ {
			if closes[i-1] == 0 {
				continue
			}
			returns[i] = closes[i]/closes[i-1] - 1
		}
		std := talib.StdDev(returns, volWindow, 1.0)
		annual := math.Sqrt(tradingDaysPerYear)
		out := make([]float64, n)
		for i := range out {
			out[i] = std[i] * annual
		}
		return out
	})

	return p
}

// rsiNeutralFlat 在 TA-Lib RSI 基础上修正恒定窗口的取值：
// 无涨无跌时 TA-Lib 回落为 0，这里钉为中性 50。
func rsiNeutralFlat(closes []float64, period int) []float64 {
	out := talib.Rsi(closes, period)
	for i := period; i < len(closes); i++ {
		flat := true
		for j := i - period; j < i; j++ {
			if closes[j] != closes[j+1] {
				flat = false
				break
			}
		}
		if flat {
			out[i] = 50
		}
	}
	return out
}
