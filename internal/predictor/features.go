package predictor

import (
	"math"

	"spyglass/internal/analysis/indicator"
)

// panelFeatures 直接取自面板的特征列。
var panelFeatures = []string{
	indicator.ColRSI14, indicator.ColRSI21,
	indicator.ColMACD, indicator.ColMACDSignal, indicator.ColMACDHist,
	indicator.ColStochK, indicator.ColStochD,
	indicator.ColWillR, indicator.ColCCI,
	indicator.ColBBPosition, indicator.ColBBWidth,
	indicator.ColATR, indicator.ColADX,
	indicator.ColPlusDI, indicator.ColMinusDI,
	indicator.ColMFI, indicator.ColVolumeRatio,
	indicator.ColMomentum, indicator.ColROC, indicator.ColVolatility,
}

// laggedFeatures 这些列额外加入滞后 1/2 期的取值。
var laggedFeatures = []string{
	indicator.ColRSI14, indicator.ColMACD, indicator.ColVolumeRatio,
}

// FeatureNames 返回特征全名列表（面板列 + 价格均线比值 + 滞后项），顺序固定。
func FeatureNames() []string {
	names := make([]string, 0, len(panelFeatures)+3+2*len(laggedFeatures))
	names = append(names, panelFeatures...)
	names = append(names, "price_sma20_ratio", "price_sma50_ratio", "sma20_sma50_ratio")
	for _, col := range laggedFeatures {
		names = append(names, col+"_lag1", col+"_lag2")
	}
	return names
}

// featureRow 提取第 i 行的特征向量。任何一项未定义（NaN/Inf）即返回 false，
// 绝不以默认值顶替——未定义指标在训练与推断前被剔除而非清零。
func featureRow(p *indicator.Panel, i int) ([]float64, bool) {
	if i < 2 || i >= p.Len() {
		return nil, false
	}
	out := make([]float64, 0, len(panelFeatures)+3+2*len(laggedFeatures))
	for _, col := range panelFeatures {
		out = append(out, p.Value(col, i))
	}
	sma20 := p.Value(indicator.ColSMA20, i)
	sma50 := p.Value(indicator.ColSMA50, i)
	if sma20 == 0 || sma50 == 0 {
		return nil, false
	}
	out = append(out, p.Closes[i]/sma20, p.Closes[i]/sma50, sma20/sma50)
	for _, col := range laggedFeatures {
		out = append(out, p.Value(col, i-1), p.Value(col, i-2))
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return out, true
}
