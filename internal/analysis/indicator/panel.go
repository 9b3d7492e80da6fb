package indicator

import "math"

// 指标列名。下游（规则、预测器、实时分析）统一引用这里的常量。
const (
	ColSMA10  = "sma_10"
	ColSMA20  = "sma_20"
	ColSMA50  = "sma_50"
	ColSMA200 = "sma_200"

	ColEMA12 = "ema_12"
	ColEMA26 = "ema_26"
	ColEMA50 = "ema_50"

	ColMACD       = "macd"
	ColMACDSignal = "macd_signal"
	ColMACDHist   = "macd_hist"

	ColRSI14 = "rsi_14"
	ColRSI21 = "rsi_21"

	ColStochK = "stoch_k"
	ColStochD = "stoch_d"

	ColWillR = "willr"
	ColCCI   = "cci"

	ColBBUpper    = "bb_upper"
	ColBBMiddle   = "bb_middle"
	ColBBLower    = "bb_lower"
	ColBBWidth    = "bb_width"
	ColBBPosition = "bb_position"

	ColATR     = "atr"
	ColSAR     = "sar"
	ColADX     = "adx"
	ColPlusDI  = "plus_di"
	ColMinusDI = "minus_di"

	ColMFI         = "mfi"
	ColOBV         = "obv"
	ColVolumeSMA   = "volume_sma"
	ColVolumeRatio = "volume_ratio"

	ColMomentum   = "momentum"
	ColROC        = "roc"
	ColVolatility = "volatility"
)

// Panel 时间对齐的指标面板。每列与输入 K 线等长；
// 预热期（回看窗口未满）的行以 NaN 标记，绝不外推。
type Panel struct {
	Times   []int64
	Closes  []float64
	columns map[string][]float64
	order   []string
}

func newPanel(times []int64, closes []float64) *Panel {
	return &Panel{
		Times:   times,
		Closes:  closes,
		columns: make(map[string][]float64),
	}
}

// Len 返回行数（等于输入 K 线数）。
func (p *Panel) Len() int { return len(p.Times) }

// Columns 按计算顺序返回所有列名。
func (p *Panel) Columns() []string { return p.order }

// Column 返回整列；不存在时返回 nil。调用方不得修改。
func (p *Panel) Column(name string) []float64 { return p.columns[name] }

// Value 返回第 i 行的单个指标值；缺列或越界返回 NaN。
func (p *Panel) Value(name string, i int) float64 {
	col := p.columns[name]
	if i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// Defined 判断第 i 行给定列是否全部有值。
func (p *Panel) Defined(i int, names ...string) bool {
	for _, name := range names {
		v := p.Value(name, i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RowDefined 判断第 i 行是否所有列均有值。
func (p *Panel) RowDefined(i int) bool {
	return p.Defined(i, p.order...)
}

// DefinedRows 返回所有列均有值的行数。短序列输入下该值为 0，
// 消费方必须先检查再取值。
func (p *Panel) DefinedRows() int {
	n := 0
	for i := 0; i < p.Len(); i++ {
		if p.RowDefined(i) {
			n++
		}
	}
	return n
}

// LastDefinedRow 返回最后一个所有列均有值的行下标，没有则 -1。
func (p *Panel) LastDefinedRow() int {
	for i := p.Len() - 1; i >= 0; i-- {
		if p.RowDefined(i) {
			return i
		}
	}
	return -1
}

func (p *Panel) set(name string, series []float64) {
	if _, ok := p.columns[name]; !ok {
		p.order = append(p.order, name)
	}
	p.columns[name] = series
}

// add 注册一列：行数不足 lookback+1 时整列置 NaN（不调用计算），
// 否则计算后把前 lookback 行标为 NaN。
func (p *Panel) add(name string, lookback int, compute func() []float64) {
	n := p.Len()
	if n == 0 {
		p.set(name, nil)
		return
	}
	if lookback >= n {
		p.set(name, nanSeries(n))
		return
	}
	series := compute()
	if len(series) != n {
		padded := nanSeries(n)
		copy(padded[n-len(series):], series)
		series = padded
	}
	for i := 0; i < lookback; i++ {
		series[i] = math.NaN()
	}
	p.set(name, series)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
