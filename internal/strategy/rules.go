package strategy

import (
	"spyglass/internal/analysis/indicator"
)

// Rule 纯函数式信号规则：面板进，信号序列出。
// 实现不得修改面板；预热期（指标未定义）的行一律输出 Hold。
type Rule interface {
	Name() string
	Evaluate(p *indicator.Panel) []Signal
}

// resolve 统一的平票处理：买卖条件同时成立时输出 Hold。
// 规则条件按设计互斥，这里只是兜底（有测试覆盖互斥性）。
func resolve(buy, sell bool) Signal {
	switch {
	case buy && sell:
		return Hold
	case buy:
		return Buy
	case sell:
		return Sell
	default:
		return Hold
	}
}

// MeanReversionRule 均值回归：超卖/超买 + 布林带极端位置 + 放量确认。
type MeanReversionRule struct{}

func (MeanReversionRule) Name() string { return "mean_reversion" }

func (MeanReversionRule) Evaluate(p *indicator.Panel) []Signal {
	out := make([]Signal, p.Len())
	cols := []string{
		indicator.ColRSI14, indicator.ColBBPosition,
		indicator.ColWillR, indicator.ColVolumeRatio,
	}
	for i := range out {
		if !p.Defined(i, cols...) {
			continue
		}
		rsi := p.Value(indicator.ColRSI14, i)
		bbPos := p.Value(indicator.ColBBPosition, i)
		willr := p.Value(indicator.ColWillR, i)
		volSpike := p.Value(indicator.ColVolumeRatio, i) > 1.5

		oversold := rsi < 30 && bbPos < 0.05 && willr < -80
		overbought := rsi > 70 && bbPos > 0.95 && willr > -20
		out[i] = resolve(oversold && volSpike, overbought && volSpike)
	}
	return out
}

// MomentumBreakoutRule 动量突破：均线趋势对齐 + ADX 强度 + DI/MACD 方向 + 量能确认。
type MomentumBreakoutRule struct{}

func (MomentumBreakoutRule) Name() string { return "momentum_breakout" }

func (MomentumBreakoutRule) Evaluate(p *indicator.Panel) []Signal {
	out := make([]Signal, p.Len())
	cols := []string{
		indicator.ColSMA20, indicator.ColSMA50, indicator.ColADX,
		indicator.ColPlusDI, indicator.ColMinusDI,
		indicator.ColMACD, indicator.ColMACDSignal, indicator.ColVolumeRatio,
	}
	for i := range out {
		if !p.Defined(i, cols...) {
			continue
		}
		close := p.Closes[i]
		sma20 := p.Value(indicator.ColSMA20, i)
		sma50 := p.Value(indicator.ColSMA50, i)
		plusDI := p.Value(indicator.ColPlusDI, i)
		minusDI := p.Value(indicator.ColMinusDI, i)
		macd := p.Value(indicator.ColMACD, i)
		macdSig := p.Value(indicator.ColMACDSignal, i)

		strong := p.Value(indicator.ColADX, i) > 25
		volConfirm := p.Value(indicator.ColVolumeRatio, i) > 1.2

		uptrend := sma20 > sma50 && close > sma20
		downtrend := sma20 < sma50 && close < sma20
		bullish := plusDI > minusDI && macd > macdSig
		bearish := plusDI < minusDI && macd < macdSig

		out[i] = resolve(
			uptrend && strong && bullish && volConfirm,
			downtrend && strong && bearish && volConfirm,
		)
	}
	return out
}

// VolatilityBreakoutRule 波动率突破：价格穿越布林带 + 带宽扩张 + 放量。
type VolatilityBreakoutRule struct{}

func (VolatilityBreakoutRule) Name() string { return "volatility_breakout" }

func (VolatilityBreakoutRule) Evaluate(p *indicator.Panel) []Signal {
	out := make([]Signal, p.Len())
	cols := []string{
		indicator.ColBBUpper, indicator.ColBBLower, indicator.ColBBWidth,
		indicator.ColVolumeRatio, indicator.ColRSI14,
	}
	for i := range out {
		if i == 0 || !p.Defined(i, cols...) || !p.Defined(i-1, indicator.ColBBWidth) {
			continue
		}
		close := p.Closes[i]
		expansion := p.Value(indicator.ColBBWidth, i) > p.Value(indicator.ColBBWidth, i-1)*1.1
		volBreakout := p.Value(indicator.ColVolumeRatio, i) > 1.5
		rsi := p.Value(indicator.ColRSI14, i)

		upperBreak := close > p.Value(indicator.ColBBUpper, i)
		lowerBreak := close < p.Value(indicator.ColBBLower, i)

		out[i] = resolve(
			upperBreak && expansion && volBreakout && rsi < 80,
			lowerBreak && expansion && volBreakout && rsi > 20,
		)
	}
	return out
}

// AllRules 集成投票使用的三条规则，顺序固定。
func AllRules() []Rule {
	return []Rule{MeanReversionRule{}, MomentumBreakoutRule{}, VolatilityBreakoutRule{}}
}
