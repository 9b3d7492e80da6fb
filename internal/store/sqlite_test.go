package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *SQLiteKlineStore {
	t.Helper()
	s, err := NewSQLiteKlineStore(filepath.Join(t.TempDir(), "klines.db"))
	if err != nil {
		t.Fatalf("打开 sqlite 失败: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLitePathRequired(t *testing.T) {
	if _, err := NewSQLiteKlineStore(""); err == nil {
		t.Fatalf("空路径应报错")
	}
}

func TestSQLitePutGetUpsert(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	if err := s.Put(ctx, "^SPX", "1h", mkCandles(0, 5)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	// 同 open_time 重写应覆盖。
	override := mkCandles(4, 1)
	override[0].Close = 999
	if err := s.Put(ctx, "^SPX", "1h", override); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}

	got, err := s.Get(ctx, "^SPX", "1h", 0)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("upsert 后仍应为 5 根, 实际=%d", len(got))
	}
	if got[4].Close != 999 {
		t.Fatalf("覆盖未生效, 末根 close=%v", got[4].Close)
	}
	for i := 1; i < len(got); i++ {
		if got[i].OpenTime <= got[i-1].OpenTime {
			t.Fatalf("读取结果应升序")
		}
	}
}

func TestSQLiteGetLimitReturnsLatest(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	if err := s.Put(ctx, "^SPX", "1h", mkCandles(0, 10)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	got, err := s.Get(ctx, "^SPX", "1h", 3)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if len(got) != 3 || got[0].Close != 7 || got[2].Close != 9 {
		t.Fatalf("limit 应取最近 3 根且升序: %+v", got)
	}
}

func TestSQLiteSeriesIsolation(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	if err := s.Put(ctx, "^SPX", "1h", mkCandles(0, 3)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if err := s.Put(ctx, "^VIX", "1h", mkCandles(0, 2)); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	spx, _ := s.Get(ctx, "^SPX", "1h", 0)
	vix, _ := s.Get(ctx, "^VIX", "1h", 0)
	if len(spx) != 3 || len(vix) != 2 {
		t.Fatalf("不同序列应隔离: spx=%d vix=%d", len(spx), len(vix))
	}
	other, _ := s.Get(ctx, "^SPX", "1d", 0)
	if len(other) != 0 {
		t.Fatalf("不同周期应隔离, 实际=%d", len(other))
	}
}

func TestSQLitePing(t *testing.T) {
	s := openTestDB(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping 失败: %v", err)
	}
}
