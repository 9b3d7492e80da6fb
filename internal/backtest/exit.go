package backtest

import "spyglass/internal/market"

// ExitRule 可插拔的离场策略。mark 为按当根 K 线重估的期权代理价。
type ExitRule interface {
	// ShouldExit 返回是否平仓及原因。
	ShouldExit(pos *Position, c market.Candle, mark float64) (bool, string)
}

// DefaultExitRule 止损 / 止盈 / 到期三重离场。
type DefaultExitRule struct {
	StopLossPct     float64 // 相对入场价的亏损比例，如 0.5
	ProfitTargetPct float64 // 相对入场价的盈利比例，如 0.25
}

func (r DefaultExitRule) ShouldExit(pos *Position, c market.Candle, mark float64) (bool, string) {
	if !c.Time().Before(pos.Expiration) {
		return true, ExitExpiration
	}
	if pos.EntryPrice <= 0 {
		return false, ""
	}
	change := mark/pos.EntryPrice - 1
	if r.StopLossPct > 0 && change <= -r.StopLossPct {
		return true, ExitStopLoss
	}
	if r.ProfitTargetPct > 0 && change >= r.ProfitTargetPct {
		return true, ExitProfitTarget
	}
	return false, ""
}
