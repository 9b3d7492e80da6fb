package backtest

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"spyglass/internal/market"
	"spyglass/internal/store"
)

// fakeSource 预置行情或错误的内存数据源。
type fakeSource struct {
	candles map[string][]market.Candle
	err     error
	calls   int
}

func (f *fakeSource) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ks := f.candles[symbol]
	if limit > 0 && len(ks) > limit {
		ks = ks[len(ks)-limit:]
	}
	return ks, nil
}

func (f *fakeSource) Close() error { return nil }

func waveCandles(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		base := 100 + 10*math.Sin(float64(i)/7)
		out[i] = market.Candle{
			OpenTime: int64(i) * 86400000,
			Open:     base * 0.999,
			High:     base * 1.006,
			Low:      base * 0.994,
			Close:    base,
			Volume:   1000 + 200*math.Sin(float64(i)/5),
		}
	}
	return out
}

func newTestService(t *testing.T, src market.Source) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Symbol: "^SPX", History: 300}, src, store.NewMemoryKlineStore(0), nil)
	if err != nil {
		t.Fatalf("构造服务失败: %v", err)
	}
	return svc
}

func TestRunBacktestRuleOnly(t *testing.T) {
	src := &fakeSource{candles: map[string][]market.Candle{"^SPX": waveCandles(300)}}
	svc := newTestService(t, src)

	off := false
	rep, err := svc.RunBacktest(context.Background(), Params{UseMLEnsemble: &off})
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}
	if !rep.Success || rep.Symbol != "^SPX" {
		t.Fatalf("报告异常: %+v", rep)
	}
	if rep.FinalCapital != 100000+rep.TotalPnL {
		t.Fatalf("期末资金应等于本金加总盈亏")
	}
}

func TestRunBacktestInsufficientHistory(t *testing.T) {
	src := &fakeSource{candles: map[string][]market.Candle{"^SPX": waveCandles(60)}}
	svc := newTestService(t, src)

	rep, err := svc.RunBacktest(context.Background(), Params{})
	if err == nil {
		t.Fatalf("历史不足应返回错误")
	}
	if rep.Success {
		t.Fatalf("失败报告不应标记 Success")
	}
}

func TestRunBacktestSourceDown(t *testing.T) {
	src := &fakeSource{err: market.ErrDataUnavailable}
	svc := newTestService(t, src)

	_, err := svc.RunBacktest(context.Background(), Params{})
	if !errors.Is(err, market.ErrDataUnavailable) {
		t.Fatalf("数据源不可用应上抛 ErrDataUnavailable, 实际=%v", err)
	}
}

func TestFetchCachedFallback(t *testing.T) {
	cache := store.NewMemoryKlineStore(0)
	src := &fakeSource{candles: map[string][]market.Candle{"^SPX": waveCandles(300)}}
	svc, err := NewService(ServiceConfig{Symbol: "^SPX", History: 300}, src, cache, nil)
	if err != nil {
		t.Fatalf("构造服务失败: %v", err)
	}

	// 首次拉取成功并写入缓存。
	first, err := svc.Candles(context.Background(), "")
	if err != nil || len(first) != 300 {
		t.Fatalf("首次拉取失败: n=%d err=%v", len(first), err)
	}
	cached, _ := cache.Get(context.Background(), "^SPX", "1d", 0)
	if len(cached) != 300 {
		t.Fatalf("成功拉取后应写缓存, 实际=%d", len(cached))
	}

	// 源故障后回落缓存。
	src.err = market.ErrDataUnavailable
	again, err := svc.Candles(context.Background(), "")
	if err != nil || len(again) != 300 {
		t.Fatalf("源故障应回落缓存: n=%d err=%v", len(again), err)
	}
}

func TestFetchCachedBothDown(t *testing.T) {
	src := &fakeSource{err: market.ErrDataUnavailable}
	svc := newTestService(t, src)
	if _, err := svc.Candles(context.Background(), ""); !errors.Is(err, market.ErrDataUnavailable) {
		t.Fatalf("源与缓存皆空应上抛原始错误, 实际=%v", err)
	}
}

func TestSubmitBacktestLifecycle(t *testing.T) {
	src := &fakeSource{candles: map[string][]market.Candle{"^SPX": waveCandles(300)}}
	svc := newTestService(t, src)

	off := false
	job := svc.SubmitBacktest(Params{UseMLEnsemble: &off})
	if job.ID == "" || job.Status != JobStatusPending {
		t.Fatalf("受理快照异常: %+v", job)
	}
	svc.Wait()

	done, ok := svc.JobSnapshot(job.ID)
	if !ok {
		t.Fatalf("任务应可查询")
	}
	if done.Status != JobStatusDone {
		t.Fatalf("任务应完成, 实际=%s (%s)", done.Status, done.Message)
	}
	if done.Report == nil || !done.Report.Success {
		t.Fatalf("完成任务应携带成功报告")
	}
	if !done.UpdatedAt.After(time.Time{}) {
		t.Fatalf("任务应记录更新时间")
	}
}

func TestSubmitBacktestFailure(t *testing.T) {
	src := &fakeSource{err: market.ErrDataUnavailable}
	svc := newTestService(t, src)

	job := svc.SubmitBacktest(Params{})
	svc.Wait()

	done, _ := svc.JobSnapshot(job.ID)
	if done.Status != JobStatusFailed {
		t.Fatalf("数据源故障任务应失败, 实际=%s", done.Status)
	}
	if done.Message == "" {
		t.Fatalf("失败任务应记录原因")
	}
}

func TestJobsSnapshotOrder(t *testing.T) {
	src := &fakeSource{candles: map[string][]market.Candle{"^SPX": waveCandles(300)}}
	svc := newTestService(t, src)

	restore := nowFunc
	defer func() { nowFunc = restore }()
	base := time.Unix(1700000000, 0)
	var step atomic.Int64
	nowFunc = func() time.Time {
		return base.Add(time.Duration(step.Add(1)) * time.Second)
	}

	off := false
	first := svc.SubmitBacktest(Params{UseMLEnsemble: &off})
	second := svc.SubmitBacktest(Params{UseMLEnsemble: &off})
	svc.Wait()

	jobs := svc.JobsSnapshot()
	if len(jobs) != 2 {
		t.Fatalf("应有 2 个任务, 实际=%d", len(jobs))
	}
	if jobs[0].ID != second.ID || jobs[1].ID != first.ID {
		t.Fatalf("任务列表应按提交时间倒序")
	}
}

func TestRunBacktestStrictIntegrity(t *testing.T) {
	// 中段抽掉 5 根制造缺口。
	full := waveCandles(300)
	gapped := append(append([]market.Candle{}, full[:100]...), full[105:]...)
	src := &fakeSource{candles: map[string][]market.Candle{"^SPX": gapped}}

	svc, err := NewService(ServiceConfig{Symbol: "^SPX", History: 300, StrictIntegrity: true},
		src, store.NewMemoryKlineStore(0), nil)
	if err != nil {
		t.Fatalf("构造服务失败: %v", err)
	}
	off := false
	rep, err := svc.RunBacktest(context.Background(), Params{UseMLEnsemble: &off})
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}
	if rep.Integrity == nil {
		t.Fatalf("严格模式报告应携带完整性扫描结果")
	}
	if rep.Integrity.Complete() {
		t.Fatalf("缺口序列不应判定完整: %+v", rep.Integrity)
	}
	if len(rep.Integrity.Gaps) != 1 || rep.Integrity.Gaps[0].Count != 5 {
		t.Fatalf("应报告 1 个缺 5 根的缺口: %+v", rep.Integrity.Gaps)
	}
}

func TestRunBacktestIntegrityOffByDefault(t *testing.T) {
	src := &fakeSource{candles: map[string][]market.Candle{"^SPX": waveCandles(300)}}
	svc := newTestService(t, src)
	off := false
	rep, err := svc.RunBacktest(context.Background(), Params{UseMLEnsemble: &off})
	if err != nil {
		t.Fatalf("回测失败: %v", err)
	}
	if rep.Integrity != nil {
		t.Fatalf("非严格模式不应携带完整性报告")
	}
}

func TestJobSnapshotUnknown(t *testing.T) {
	svc := newTestService(t, &fakeSource{})
	if _, ok := svc.JobSnapshot("nope"); ok {
		t.Fatalf("未知任务不应命中")
	}
}
