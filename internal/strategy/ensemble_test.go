package strategy

import (
	"encoding/json"
	"testing"
)

func votes(n int, fill Signal) []Signal {
	out := make([]Signal, n)
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestCombineVotesThreshold(t *testing.T) {
	n := EnsembleWarmup + 2
	rules := [][]Signal{votes(n, Buy), votes(n, Buy), votes(n, Hold)}
	out := CombineVotes(rules, Hold)
	if len(out) != n {
		t.Fatalf("输出长度应为 %d, 实际=%d", n, len(out))
	}
	// 预热期内即使票数够也不出信号。
	for i := 0; i < EnsembleWarmup; i++ {
		if out[i] != Hold {
			t.Fatalf("预热期第 %d 行应为 Hold, 实际=%v", i, out[i])
		}
	}
	// 两票买达到阈值。
	if out[EnsembleWarmup] != Buy {
		t.Fatalf("净票数 +2 应输出 Buy, 实际=%v", out[EnsembleWarmup])
	}
}

func TestCombineVotesBelowThreshold(t *testing.T) {
	n := EnsembleWarmup + 2
	rules := [][]Signal{votes(n, Buy), votes(n, Hold), votes(n, Hold)}
	out := CombineVotes(rules, Hold)
	if out[EnsembleWarmup] != Hold {
		t.Fatalf("净票数 +1 未达阈值应输出 Hold, 实际=%v", out[EnsembleWarmup])
	}
}

func TestCombineVotesMLDoubleWeightLastBarOnly(t *testing.T) {
	n := EnsembleWarmup + 3
	rules := [][]Signal{votes(n, Hold), votes(n, Hold), votes(n, Hold)}

	out := CombineVotes(rules, Buy)
	// 预测器双倍票只作用于最后一根。
	for i := EnsembleWarmup; i < n-1; i++ {
		if out[i] != Hold {
			t.Fatalf("非末行第 %d 行不应受 ML 票影响, 实际=%v", i, out[i])
		}
	}
	if out[n-1] != Buy {
		t.Fatalf("末行 ML 双倍买票应输出 Buy, 实际=%v", out[n-1])
	}

	if out := CombineVotes(rules, Sell); out[n-1] != Sell {
		t.Fatalf("末行 ML 双倍卖票应输出 Sell, 实际=%v", out[n-1])
	}
}

func TestCombineVotesOpposingCancel(t *testing.T) {
	n := EnsembleWarmup + 1
	rules := [][]Signal{votes(n, Buy), votes(n, Buy), votes(n, Sell)}
	out := CombineVotes(rules, Hold)
	if out[n-1] != Hold {
		t.Fatalf("2 买 1 卖净票 +1 应输出 Hold, 实际=%v", out[n-1])
	}
}

func TestCombineVotesInvalidInput(t *testing.T) {
	if out := CombineVotes(nil, Buy); out != nil {
		t.Fatalf("空输入应返回 nil")
	}
	rules := [][]Signal{votes(10, Buy), votes(9, Buy)}
	if out := CombineVotes(rules, Hold); out != nil {
		t.Fatalf("长度不齐应返回 nil")
	}
}

func TestSignalJSONRoundTrip(t *testing.T) {
	for sig, text := range map[Signal]string{Buy: `"buy"`, Sell: `"sell"`, Hold: `"hold"`} {
		data, err := json.Marshal(sig)
		if err != nil {
			t.Fatalf("marshal %v: %v", sig, err)
		}
		if string(data) != text {
			t.Fatalf("%v 应编码为 %s, 实际=%s", sig, text, data)
		}
		var back Signal
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != sig {
			t.Fatalf("回读不一致: %v != %v", back, sig)
		}
	}
}
