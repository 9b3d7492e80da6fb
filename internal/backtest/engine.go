package backtest

import (
	"math"
	"time"

	"spyglass/internal/logger"
	"spyglass/internal/market"
	"spyglass/internal/store"
	"spyglass/internal/strategy"
)

// Config 回测引擎参数。零值字段回落到默认。
type Config struct {
	Symbol          string
	InitialCapital  float64
	MaxRiskPerTrade float64
	// ContractMultiplier 每张合约对应的股数（期权惯例 100）。
	ContractMultiplier float64
	// StrikeOTMPct 行权价相对现价的虚值偏移（看涨 +、看跌 -）。
	StrikeOTMPct float64
	// OptionPricePct 入场权利金 = 现价 × 该比例。代理定价，非估值模型。
	OptionPricePct float64
	ExpiryDays     int
	Exit           ExitRule
}

func (c Config) withDefaults() Config {
	if c.Symbol == "" {
		c.Symbol = "SPX"
	}
	if c.InitialCapital <= 0 {
		c.InitialCapital = 100000
	}
	if c.MaxRiskPerTrade <= 0 {
		c.MaxRiskPerTrade = 0.02
	}
	if c.ContractMultiplier <= 0 {
		c.ContractMultiplier = 100
	}
	if c.StrikeOTMPct <= 0 {
		c.StrikeOTMPct = 0.02
	}
	if c.OptionPricePct <= 0 {
		c.OptionPricePct = 0.03
	}
	if c.ExpiryDays <= 0 {
		c.ExpiryDays = 30
	}
	if c.Exit == nil {
		c.Exit = DefaultExitRule{StopLossPct: 0.5, ProfitTargetPct: 0.25}
	}
	return c
}

// Report 回测结果汇总。
type Report struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	Symbol       string      `json:"symbol"`
	TotalTrades  int         `json:"total_trades"`
	Wins         int         `json:"wins"`
	WinRate      float64     `json:"win_rate"`
	TotalPnL     float64     `json:"total_pnl"`
	ReturnPct    float64     `json:"return_pct"`
	FinalCapital float64     `json:"final_capital"`
	Positions    []*Position `json:"positions"`
	// Integrity 严格校验模式下的行情覆盖扫描结果；指数路径为 nil。
	Integrity *store.IntegrityReport `json:"integrity,omitempty"`
}

// 期权代理价对标的涨跌的放大倍数。刻意的简化替身，不追求估值真实性。
const proxyLeverage = 10.0

// Engine 按时间顺序单遍扫描信号序列，模拟开平仓并累计盈亏。
// 每根 K 线上的状态机：Idle →（买/卖信号）→ PositionOpen →（离场触发）→ Idle。
// 单实例单次使用；并发回测各起各的实例。
type Engine struct {
	cfg     Config
	capital float64
	open    *Position
	closed  []*Position
	all     []*Position
}

func New(cfg Config) *Engine {
	final := cfg.withDefaults()
	return &Engine{cfg: final, capital: final.InitialCapital}
}

// Run 执行回测。candles 与 signals 必须等长且时间升序；
// 长度不符时返回 Success=false 的报告。
func (e *Engine) Run(candles []market.Candle, signals []strategy.Signal) Report {
	if len(candles) != len(signals) {
		return Report{Success: false, Message: "candles and signals length mismatch", Symbol: e.cfg.Symbol}
	}
	for idx, c := range candles {
		if e.open != nil {
			e.evaluateExit(c)
		}
		if e.open == nil && signals[idx] != strategy.Hold {
			e.openPosition(c, signals[idx])
		}
	}
	return e.report()
}

func (e *Engine) openPosition(c market.Candle, sig strategy.Signal) {
	kind := Call
	strike := c.Close * (1 + e.cfg.StrikeOTMPct)
	if sig == strategy.Sell {
		kind = Put
		strike = c.Close * (1 - e.cfg.StrikeOTMPct)
	}
	optionPrice := c.Close * e.cfg.OptionPricePct
	if optionPrice <= 0 {
		return
	}
	qty := e.positionSize(optionPrice)
	pos := &Position{
		Symbol:          e.cfg.Symbol,
		Kind:            kind,
		Strike:          strike,
		Expiration:      c.Time().Add(time.Duration(e.cfg.ExpiryDays) * 24 * time.Hour),
		Quantity:        qty,
		EntryPrice:      optionPrice,
		EntryTime:       c.Time(),
		EntryUnderlying: c.Close,
	}
	e.open = pos
	e.all = append(e.all, pos)
	logger.Debugf("[backtest] open %s %s strike=%.2f qty=%d entry=%.2f",
		e.cfg.Symbol, kind, strike, qty, optionPrice)
}

// positionSize 风控仓位：floor(资金 × 单笔风险比例 / 单张合约价值)，至少 1 张。
func (e *Engine) positionSize(optionPrice float64) int {
	risk := e.capital * e.cfg.MaxRiskPerTrade
	perContract := optionPrice * e.cfg.ContractMultiplier
	size := int(math.Floor(risk / perContract))
	if size < 1 {
		size = 1
	}
	return size
}

func (e *Engine) evaluateExit(c market.Candle) {
	pos := e.open
	mark := e.markPrice(pos, c.Close)
	done, reason := e.cfg.Exit.ShouldExit(pos, c, mark)
	if !done {
		return
	}
	pos.ExitPrice = mark
	pos.ExitTime = c.Time()
	pos.ExitReason = reason
	pos.Closed = true
	pnl := pos.PnL(e.cfg.ContractMultiplier)
	e.capital += pnl
	e.closed = append(e.closed, pos)
	e.open = nil
	logger.Debugf("[backtest] close %s %s reason=%s pnl=%.2f", e.cfg.Symbol, pos.Kind, reason, pnl)
}

// markPrice 以标的涨跌按固定杠杆重估权利金。代理定价，仅为离场判定服务。
func (e *Engine) markPrice(pos *Position, underlying float64) float64 {
	if pos.EntryUnderlying == 0 {
		return pos.EntryPrice
	}
	move := underlying/pos.EntryUnderlying - 1
	if pos.Kind == Put {
		move = -move
	}
	mark := pos.EntryPrice * (1 + proxyLeverage*move)
	if mark < 0 {
		mark = 0
	}
	return mark
}

func (e *Engine) report() Report {
	wins := 0
	totalPnL := 0.0
	for _, pos := range e.closed {
		pnl := pos.PnL(e.cfg.ContractMultiplier)
		totalPnL += pnl
		if pnl > 0 {
			wins++
		}
	}
	trades := len(e.all)
	return Report{
		Success:      true,
		Symbol:       e.cfg.Symbol,
		TotalTrades:  trades,
		Wins:         wins,
		WinRate:      float64(wins) / math.Max(float64(trades), 1),
		TotalPnL:     totalPnL,
		ReturnPct:    totalPnL / e.cfg.InitialCapital * 100,
		FinalCapital: e.cfg.InitialCapital + totalPnL,
		Positions:    e.all,
	}
}
