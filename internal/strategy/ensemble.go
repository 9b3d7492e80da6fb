package strategy

// EnsembleWarmup 集成投票的预热期：前 50 根 K 线不产生信号。
const EnsembleWarmup = 50

// 集成判定阈值：净票数达到 ±2 才发出方向信号。
const ensembleThreshold = 2

// CombineVotes 将多条规则的信号序列与预测器的实时信号合并为一条投票序列。
//
// 预测器只对当下做推断、没有历史回填，因此它的票仅计入最后一根 K 线，
// 且按双倍权重计。这是刻意保留的不对称设计：在区间回测里最后一根之前
// 的票数口径与最后一根不同，属于既定行为而非缺陷。
//
// 所有输入序列必须等长；空输入返回 nil。
func CombineVotes(ruleSignals [][]Signal, mlSignal Signal) []Signal {
	if len(ruleSignals) == 0 {
		return nil
	}
	n := len(ruleSignals[0])
	for _, s := range ruleSignals[1:] {
		if len(s) != n {
			return nil
		}
	}
	out := make([]Signal, n)
	for i := EnsembleWarmup; i < n; i++ {
		sum := 0
		for _, s := range ruleSignals {
			sum += s[i].Vote()
		}
		if i == n-1 {
			sum += 2 * mlSignal.Vote()
		}
		switch {
		case sum >= ensembleThreshold:
			out[i] = Buy
		case sum <= -ensembleThreshold:
			out[i] = Sell
		}
	}
	return out
}
