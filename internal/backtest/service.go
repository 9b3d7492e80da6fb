package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spyglass/internal/analysis/indicator"
	"spyglass/internal/analysis/live"
	"spyglass/internal/flags"
	"spyglass/internal/logger"
	"spyglass/internal/market"
	"spyglass/internal/predictor"
	"spyglass/internal/store"
	"spyglass/internal/strategy"
)

// nowFunc 时间源，测试可替换。
var nowFunc = time.Now

// ServiceConfig 服务的基础配置；Params 缺省字段由这里补齐。
type ServiceConfig struct {
	Symbol    string
	VIXSymbol string
	Interval  string
	History   int
	// StrictIntegrity 回测前按周期扫描行情缺口并写入报告。
	// 只对连续交易的市场（加密）开启；指数有休市日，缺口是常态。
	StrictIntegrity bool
	Engine          Config
	Predictor       predictor.Config
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Symbol == "" {
		c.Symbol = "^SPX"
	}
	if c.Interval == "" {
		c.Interval = "1d"
	}
	if c.History <= 0 {
		c.History = 504
	}
	return c
}

// Service 编排一次完整的信号生成与回测：拉取行情（带存储缓存）、
// 计算指标、出信号（规则或 ML 集成）、跑引擎，并以任务形式跟踪进度。
type Service struct {
	cfg    ServiceConfig
	source market.Source
	cache  store.KlineStore
	flags  flags.Provider

	mu   sync.Mutex
	jobs map[string]*Job
	wg   sync.WaitGroup
}

func NewService(cfg ServiceConfig, source market.Source, cache store.KlineStore, fp flags.Provider) (*Service, error) {
	if source == nil {
		return nil, errors.New("market source is required")
	}
	if cache == nil {
		cache = store.NewMemoryKlineStore(0)
	}
	if fp == nil {
		fp = flags.NewStatic(nil)
	}
	return &Service{
		cfg:    cfg.withDefaults(),
		source: source,
		cache:  cache,
		flags:  fp,
		jobs:   make(map[string]*Job),
	}, nil
}

// SubmitBacktest 受理回测任务并异步执行，立即返回任务快照。
func (s *Service) SubmitBacktest(params Params) Job {
	params = s.fillParams(params)
	job := &Job{
		ID:     uuid.NewString(),
		Status: JobStatusPending,
		Params: params,
	}
	now := nowFunc()
	job.StartedAt = now
	job.UpdatedAt = now

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job.ID)
	}()
	return job.copy()
}

// RunBacktest 同步执行一次回测（CLI 路径）。
// 行情拉取失败是致命前置条件：返回 Success=false 的报告与错误。
func (s *Service) RunBacktest(ctx context.Context, params Params) (Report, error) {
	params = s.fillParams(params)
	candles, err := s.fetchCached(ctx, params.Symbol, params.Interval, params.History)
	if err != nil {
		return Report{Success: false, Message: err.Error(), Symbol: params.Symbol}, err
	}
	integrity := s.checkIntegrity(candles, params)
	signals, err := s.deriveSignals(candles, params)
	if err != nil {
		return Report{Success: false, Message: err.Error(), Symbol: params.Symbol}, err
	}
	engineCfg := s.cfg.Engine
	engineCfg.Symbol = params.Symbol
	report := New(engineCfg).Run(candles, signals)
	report.Integrity = integrity
	logger.Infof("[backtest] %s: %d trades, win rate %.2f%%, return %.2f%%",
		params.Symbol, report.TotalTrades, report.WinRate*100, report.ReturnPct)
	return report, nil
}

// LiveAnalysis 拉取标的与波动率指数（并发）后做实时分析。
func (s *Service) LiveAnalysis(ctx context.Context) (live.Analysis, error) {
	var underlying, vix []market.Candle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		underlying, err = s.fetchCached(gctx, s.cfg.Symbol, s.cfg.Interval, s.cfg.History)
		return err
	})
	if s.cfg.VIXSymbol != "" {
		g.Go(func() error {
			ks, err := s.fetchCached(gctx, s.cfg.VIXSymbol, s.cfg.Interval, s.cfg.History)
			if err != nil {
				// 波动率指数缺席只降级文案，不阻塞分析。
				logger.Warnf("[live] fetch %s failed: %v", s.cfg.VIXSymbol, err)
				return nil
			}
			vix = ks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return live.Analysis{}, err
	}
	return live.Analyze(s.cfg.Symbol, underlying, vix)
}

// Candles 返回某标的最近的 K 线（缓存优先策略同回测路径），绘图用。
func (s *Service) Candles(ctx context.Context, symbol string) ([]market.Candle, error) {
	if symbol == "" {
		symbol = s.cfg.Symbol
	}
	return s.fetchCached(ctx, symbol, s.cfg.Interval, s.cfg.History)
}

// JobSnapshot 返回任务快照。
func (s *Service) JobSnapshot(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.copy(), true
}

// JobsSnapshot 返回全部任务快照，按提交时间倒序。
func (s *Service) JobsSnapshot() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Wait 等待所有后台任务收尾（停机用）。
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) fillParams(p Params) Params {
	if p.Symbol == "" {
		p.Symbol = s.cfg.Symbol
	}
	if p.Interval == "" {
		p.Interval = s.cfg.Interval
	}
	if p.History <= 0 {
		p.History = s.cfg.History
	}
	return p
}

func (s *Service) runJob(id string) {
	s.updateJob(id, func(j *Job) { j.Status = JobStatusRunning })
	job, ok := s.JobSnapshot(id)
	if !ok {
		return
	}
	report, err := s.RunBacktest(context.Background(), job.Params)
	if err != nil {
		s.updateJob(id, func(j *Job) {
			j.Status = JobStatusFailed
			j.Message = err.Error()
		})
		return
	}
	s.updateJob(id, func(j *Job) {
		j.Status = JobStatusDone
		j.Report = &report
	})
}

func (s *Service) updateJob(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = nowFunc()
}

// deriveSignals 按功能开关选择纯规则或 ML 集成路径。
// 训练样本不足是可恢复错误：记日志后回落到纯规则。
func (s *Service) deriveSignals(candles []market.Candle, params Params) ([]strategy.Signal, error) {
	panel := indicator.Compute(candles)
	if panel.DefinedRows() == 0 {
		return nil, fmt.Errorf("not enough history for %s: %d candles", params.Symbol, len(candles))
	}

	useML := s.flags.Enabled(flags.FlagUseMLEnsemble)
	if params.UseMLEnsemble != nil {
		useML = *params.UseMLEnsemble
	}
	if !useML {
		return strategy.CompositeRule{}.Evaluate(panel), nil
	}

	rules := strategy.AllRules()
	ruleSignals := make([][]strategy.Signal, len(rules))
	for i, rule := range rules {
		ruleSignals[i] = rule.Evaluate(panel)
	}

	pred := predictor.New(s.cfg.Predictor)
	mlVote := strategy.Hold
	if _, err := pred.Train(panel); err != nil {
		if !errors.Is(err, predictor.ErrInsufficientData) {
			return nil, err
		}
		logger.Warnf("[backtest] predictor training skipped: %v", err)
	} else {
		p := pred.Predict(panel)
		mlVote = strategy.Signal(p.Signal)
		logger.Infof("[backtest] ml prediction: signal=%d prob=%.3f conf=%.3f",
			p.Signal, p.Probability, p.Confidence)
	}
	return strategy.CombineVotes(ruleSignals, mlVote), nil
}

// checkIntegrity 严格模式下扫描行情缺口；缺口只告警并记入报告，不中止回测。
func (s *Service) checkIntegrity(candles []market.Candle, params Params) *store.IntegrityReport {
	if !s.cfg.StrictIntegrity {
		return nil
	}
	openTimes := make([]int64, len(candles))
	for i, k := range candles {
		openTimes[i] = k.OpenTime
	}
	rep, err := store.CheckIntegrity(openTimes, store.Timeframe(params.Interval))
	if err != nil {
		logger.Warnf("[backtest] integrity check skipped: %v", err)
		return nil
	}
	if !rep.Complete() {
		logger.Warnf("[backtest] %s %s: %d gaps, %d/%d candles present",
			params.Symbol, params.Interval, len(rep.Gaps), rep.Present, rep.Expected)
	}
	return &rep
}

// fetchCached 先拉数据源、成功后写缓存；源失败时回落读缓存，
// 缓存也为空才把 DataUnavailable 上抛。
func (s *Service) fetchCached(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	candles, err := s.source.FetchHistory(ctx, symbol, interval, limit)
	if err == nil {
		if putErr := s.cache.Put(ctx, symbol, interval, candles); putErr != nil {
			logger.Warnf("[backtest] cache write failed: %v", putErr)
		}
		return candles, nil
	}
	cached, cacheErr := s.cache.Get(ctx, symbol, interval, limit)
	if cacheErr == nil && len(cached) > 0 {
		logger.Warnf("[backtest] source failed (%v), serving %d cached candles", err, len(cached))
		return cached, nil
	}
	return nil, err
}
