package predictor

import (
	"errors"
	"math"
	"math/rand"

	"spyglass/internal/analysis/indicator"
	"spyglass/internal/logger"
)

// ErrInsufficientData 训练样本不足（过滤后少于 MinSamples）。
// 可恢复错误：调用方可以选择跳过训练继续走纯规则路径。
var ErrInsufficientData = errors.New("insufficient training data")

// Prediction 一次实时推断的结果。未训练或末行指标未定义时为全零中性值。
type Prediction struct {
	Signal            int                `json:"signal"` // -1 / 0 / 1
	Probability       float64            `json:"probability"`
	Confidence        float64            `json:"confidence"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

// TrainingReport 训练结果汇总。
type TrainingReport struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message,omitempty"`
	Accuracy          float64            `json:"accuracy"`
	TrainSamples      int                `json:"train_samples"`
	TestSamples       int                `json:"test_samples"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

// Config 预测器参数。零值字段回落到默认。
type Config struct {
	// Lookahead 前瞻窗口：以 lookahead 根之后的收益生成标签。
	Lookahead int
	// BuyThreshold / SellThreshold 标签阈值（SellThreshold 取幅值）。
	BuyThreshold  float64
	SellThreshold float64
	// MinSamples 过滤 Hold 后的最小样本数。
	MinSamples int
	// TestRatio 留出的评估样本比例。
	TestRatio float64
	Epochs    int
	LearnRate float64
	Seed      int64
}

func (c Config) withDefaults() Config {
	if c.Lookahead <= 0 {
		c.Lookahead = 5
	}
	if c.BuyThreshold <= 0 {
		c.BuyThreshold = 0.005
	}
	if c.SellThreshold <= 0 {
		c.SellThreshold = 0.005
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 100
	}
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		c.TestRatio = 0.2
	}
	if c.Epochs <= 0 {
		c.Epochs = 200
	}
	if c.LearnRate <= 0 {
		c.LearnRate = 0.1
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	return c
}

// Predictor 在标准化的面板特征上训练逻辑回归二分类器（买/卖）。
// 对外只暴露 train/predict/feature importance，任何满足该契约的
// 分类器实现都可以替换进来。单实例单归属，不做内部加锁。
type Predictor struct {
	cfg     Config
	trained bool
	names   []string
	weights []float64
	bias    float64
	mean    []float64
	std     []float64
}

func New(cfg Config) *Predictor {
	return &Predictor{cfg: cfg.withDefaults(), names: FeatureNames()}
}

// IsTrained 返回训练状态。
func (p *Predictor) IsTrained() bool { return p.trained }

// Train 以前瞻收益生成标签并训练。前瞻收益 > BuyThreshold 记买、
// < -SellThreshold 记卖，其余为 Hold 且不参与训练（二分类）。
// 样本不足时返回 ErrInsufficientData，训练状态保持不变。
func (p *Predictor) Train(panel *indicator.Panel) (TrainingReport, error) {
	var features [][]float64
	var labels []float64 // 1 = buy, 0 = sell
	n := panel.Len()
	for i := 0; i+p.cfg.Lookahead < n; i++ {
		row, ok := featureRow(panel, i)
		if !ok {
			continue
		}
		if panel.Closes[i] == 0 {
			continue
		}
		forward := panel.Closes[i+p.cfg.Lookahead]/panel.Closes[i] - 1
		switch {
		case forward > p.cfg.BuyThreshold:
			features = append(features, row)
			labels = append(labels, 1)
		case forward < -p.cfg.SellThreshold:
			features = append(features, row)
			labels = append(labels, 0)
		}
	}
	if len(features) < p.cfg.MinSamples {
		rep := TrainingReport{
			Success: false,
			Message: "insufficient training data",
		}
		return rep, ErrInsufficientData
	}

	rng := rand.New(rand.NewSource(p.cfg.Seed))
	perm := rng.Perm(len(features))
	testN := int(float64(len(features)) * p.cfg.TestRatio)
	trainIdx := perm[testN:]
	testIdx := perm[:testN]

	dim := len(p.names)
	mean := make([]float64, dim)
	std := make([]float64, dim)
	for _, idx := range trainIdx {
		for j, v := range features[idx] {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(trainIdx))
	}
	for _, idx := range trainIdx {
		for j, v := range features[idx] {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(len(trainIdx)))
		if std[j] == 0 {
			std[j] = 1
		}
	}
	scale := func(row []float64) []float64 {
		out := make([]float64, dim)
		for j, v := range row {
			out[j] = (v - mean[j]) / std[j]
		}
		return out
	}

	weights := make([]float64, dim)
	bias := 0.0
	lr := p.cfg.LearnRate
	for epoch := 0; epoch < p.cfg.Epochs; epoch++ {
		gradW := make([]float64, dim)
		gradB := 0.0
		for _, idx := range trainIdx {
			x := scale(features[idx])
			diff := sigmoid(dot(weights, x)+bias) - labels[idx]
			for j := range gradW {
				gradW[j] += diff * x[j]
			}
			gradB += diff
		}
		inv := 1.0 / float64(len(trainIdx))
		for j := range weights {
			weights[j] -= lr * gradW[j] * inv
		}
		bias -= lr * gradB * inv
	}

	evalIdx := testIdx
	if len(evalIdx) == 0 {
		evalIdx = trainIdx
	}
	correct := 0
	for _, idx := range evalIdx {
		pBuy := sigmoid(dot(weights, scale(features[idx])) + bias)
		predicted := 0.0
		if pBuy > 0.5 {
			predicted = 1
		}
		if predicted == labels[idx] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(evalIdx))

	p.weights = weights
	p.bias = bias
	p.mean = mean
	p.std = std
	p.trained = true

	logger.Infof("[predictor] trained: %d train / %d test samples, accuracy=%.3f",
		len(trainIdx), len(testIdx), accuracy)
	return TrainingReport{
		Success:           true,
		Accuracy:          accuracy,
		TrainSamples:      len(trainIdx),
		TestSamples:       len(testIdx),
		FeatureImportance: p.FeatureImportance(),
	}, nil
}

// Predict 仅对面板最后一行做推断。未训练或末行特征未定义时返回中性预测。
func (p *Predictor) Predict(panel *indicator.Panel) Prediction {
	if !p.trained {
		return Prediction{}
	}
	row, ok := featureRow(panel, panel.Len()-1)
	if !ok {
		return Prediction{}
	}
	x := make([]float64, len(row))
	for j, v := range row {
		x[j] = (v - p.mean[j]) / p.std[j]
	}
	pBuy := sigmoid(dot(p.weights, x) + p.bias)
	signal := -1
	if pBuy > 0.5 {
		signal = 1
	}
	return Prediction{
		Signal:            signal,
		Probability:       pBuy,
		Confidence:        math.Max(pBuy, 1-pBuy),
		FeatureImportance: p.FeatureImportance(),
	}
}

// FeatureImportance 归一化的权重幅值，未训练时返回 nil。
func (p *Predictor) FeatureImportance() map[string]float64 {
	if !p.trained {
		return nil
	}
	total := 0.0
	for _, w := range p.weights {
		total += math.Abs(w)
	}
	if total == 0 {
		total = 1
	}
	out := make(map[string]float64, len(p.names))
	for j, name := range p.names {
		out[name] = math.Abs(p.weights[j]) / total
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
