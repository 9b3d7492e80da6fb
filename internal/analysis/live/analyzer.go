package live

import (
	"errors"
	"strings"
	"time"

	"spyglass/internal/analysis/indicator"
	"spyglass/internal/market"
	"spyglass/internal/strategy"
)

// ErrInsufficientHistory 最新行指标尚未就绪（历史不足）。
var ErrInsufficientHistory = errors.New("insufficient history for live analysis")

// Analysis 实时分析结论，可直接 JSON 输出。
type Analysis struct {
	Symbol          string          `json:"symbol"`
	Time            time.Time       `json:"time"`
	Price           float64         `json:"price"`
	Signal          strategy.Signal `json:"signal"`
	RSI             float64         `json:"rsi"`
	MACD            float64         `json:"macd"`
	VIXLevel        *float64        `json:"vix_level,omitempty"`
	PriceVsSMA20Pct float64         `json:"price_vs_sma20_pct"`
	Recommendation  string          `json:"recommendation"`
}

// VIX 推荐文案的阈值。
const (
	vixElevated = 25.0
	vixCalm     = 15.0
)

// Analyze 对最新一根 K 线做规则分析并生成建议文案。
// 纯函数、无状态、不做任何持久化；vix 序列可为空。
func Analyze(symbol string, candles, vix []market.Candle) (Analysis, error) {
	if len(candles) == 0 {
		return Analysis{}, ErrInsufficientHistory
	}
	panel := indicator.Compute(candles)
	last := panel.Len() - 1
	required := []string{
		indicator.ColSMA20, indicator.ColMACD,
		indicator.ColMACDSignal, indicator.ColRSI14,
	}
	if !panel.Defined(last, required...) {
		return Analysis{}, ErrInsufficientHistory
	}

	signals := strategy.CompositeRule{}.Evaluate(panel)
	sig := signals[last]
	price := panel.Closes[last]
	sma20 := panel.Value(indicator.ColSMA20, last)

	out := Analysis{
		Symbol:          symbol,
		Time:            candles[last].Time(),
		Price:           price,
		Signal:          sig,
		RSI:             panel.Value(indicator.ColRSI14, last),
		MACD:            panel.Value(indicator.ColMACD, last),
		PriceVsSMA20Pct: (price - sma20) / sma20 * 100,
	}
	if len(vix) > 0 {
		level := vix[len(vix)-1].Close
		out.VIXLevel = &level
	}
	out.Recommendation = recommend(sig, out.RSI, out.VIXLevel)
	return out, nil
}

// recommend 固定的规则到文案映射。
func recommend(sig strategy.Signal, rsi float64, vix *float64) string {
	var parts []string
	switch sig {
	case strategy.Buy:
		parts = append(parts, "Consider buying call options")
		if rsi < 40 {
			parts = append(parts, "RSI indicates oversold conditions - good for calls")
		}
	case strategy.Sell:
		parts = append(parts, "Consider buying put options")
		if rsi > 60 {
			parts = append(parts, "RSI indicates overbought conditions - good for puts")
		}
	default:
		parts = append(parts, "No clear signal - consider staying in cash")
	}
	if vix != nil {
		switch {
		case *vix > vixElevated:
			parts = append(parts, "High VIX suggests elevated volatility - consider shorter-term trades")
		case *vix < vixCalm:
			parts = append(parts, "Low VIX suggests low volatility - consider longer-term trades")
		}
	}
	return strings.Join(parts, " | ")
}
