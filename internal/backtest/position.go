package backtest

import "time"

// OptionKind 期权方向。
type OptionKind uint8

const (
	Call OptionKind = iota
	Put
)

func (k OptionKind) String() string {
	if k == Put {
		return "put"
	}
	return "call"
}

func (k OptionKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// 平仓原因。
const (
	ExitStopLoss     = "stop_loss"
	ExitProfitTarget = "profit_target"
	ExitExpiration   = "expiration"
)

// Position 一笔模拟期权持仓。由引擎创建并独占持有，
// 不会跨回测实例存活。
type Position struct {
	Symbol          string     `json:"symbol"`
	Kind            OptionKind `json:"kind"`
	Strike          float64    `json:"strike"`
	Expiration      time.Time  `json:"expiration"`
	Quantity        int        `json:"quantity"`
	EntryPrice      float64    `json:"entry_price"`
	EntryTime       time.Time  `json:"entry_time"`
	EntryUnderlying float64    `json:"entry_underlying"`
	ExitPrice       float64    `json:"exit_price,omitempty"`
	ExitTime        time.Time  `json:"exit_time,omitempty"`
	ExitReason      string     `json:"exit_reason,omitempty"`
	Closed          bool       `json:"closed"`
}

// PnL 已平仓的盈亏：(exit - entry) × quantity × 合约乘数。未平仓为 0。
func (p *Position) PnL(multiplier float64) float64 {
	if !p.Closed {
		return 0
	}
	return (p.ExitPrice - p.EntryPrice) * float64(p.Quantity) * multiplier
}
