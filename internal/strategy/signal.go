package strategy

import "fmt"

// Signal 离散交易信号。封闭枚举，序列化为小写字符串。
type Signal int8

const (
	Sell Signal = -1
	Hold Signal = 0
	Buy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Vote 返回投票值 {-1,0,1}。
func (s Signal) Vote() int { return int(s) }

func (s Signal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Signal) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"buy"`:
		*s = Buy
	case `"sell"`:
		*s = Sell
	case `"hold"`:
		*s = Hold
	default:
		return fmt.Errorf("unknown signal %s", data)
	}
	return nil
}
