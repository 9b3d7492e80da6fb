package strategy

import (
	"spyglass/internal/analysis/indicator"
)

// compositeWarmup 组合规则从第 50 根 K 线起评估，保证均线已就绪。
const compositeWarmup = 50

// CompositeRule 主策略规则：四项多头/空头条件各自计票，
// 任一方向达到三票即发出信号。条件对（价格与均线、MACD 与信号线、
// 当根与前根收盘）互斥，两个方向不可能同时凑满三票。
type CompositeRule struct{}

func (CompositeRule) Name() string { return "composite" }

func (CompositeRule) Evaluate(p *indicator.Panel) []Signal {
	out := make([]Signal, p.Len())
	cols := []string{
		indicator.ColSMA20, indicator.ColMACD,
		indicator.ColMACDSignal, indicator.ColRSI14,
	}
	for i := compositeWarmup; i < p.Len(); i++ {
		if !p.Defined(i, cols...) {
			continue
		}
		close := p.Closes[i]
		prevClose := p.Closes[i-1]
		sma20 := p.Value(indicator.ColSMA20, i)
		macd := p.Value(indicator.ColMACD, i)
		macdSig := p.Value(indicator.ColMACDSignal, i)
		rsi := p.Value(indicator.ColRSI14, i)
		rsiCalm := rsi > 30 && rsi < 70

		bullish := 0
		if close > sma20 {
			bullish++
		}
		if macd > macdSig {
			bullish++
		}
		if rsiCalm {
			bullish++
		}
		if close > prevClose {
			bullish++
		}

		bearish := 0
		if close < sma20 {
			bearish++
		}
		if macd < macdSig {
			bearish++
		}
		if rsiCalm {
			bearish++
		}
		if close < prevClose {
			bearish++
		}

		out[i] = resolve(bullish >= 3, bearish >= 3)
	}
	return out
}
