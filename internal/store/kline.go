package store

import (
	"context"
	"errors"
	"sync"

	"spyglass/internal/market"
)

// KlineStore 抽象：读写 symbol+interval 的 K 线序列。
// 回测服务用它缓存行情，避免重复拉取外部数据源。
type KlineStore interface {
	Put(ctx context.Context, symbol, interval string, ks []market.Candle) error
	Get(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
	// Ping 连通性检查，供就绪探针聚合。
	Ping(ctx context.Context) error
	Close() error
}

// MemoryKlineStore 内存实现。
type MemoryKlineStore struct {
	mu   sync.RWMutex
	data map[string][]market.Candle
	max  int
}

// NewMemoryKlineStore 创建内存存储；max 为每个序列的保留上限（<=0 时为 5000）。
func NewMemoryKlineStore(max int) *MemoryKlineStore {
	if max <= 0 {
		max = 5000
	}
	return &MemoryKlineStore{data: make(map[string][]market.Candle), max: max}
}

func key(symbol, interval string) string { return symbol + "@" + interval }

// Put 合并写入并裁剪到上限。同一 OpenTime 覆盖而非重复追加。
func (s *MemoryKlineStore) Put(ctx context.Context, symbol, interval string, ks []market.Candle) error {
	if symbol == "" || interval == "" {
		return errors.New("symbol/interval required")
	}
	if len(ks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(symbol, interval)
	merged := market.Normalize(append(s.data[k], ks...))
	if len(merged) > s.max {
		merged = merged[len(merged)-s.max:]
	}
	s.data[k] = merged
	return nil
}

// Get 返回最近 limit 根的拷贝（limit<=0 表示全部）。
func (s *MemoryKlineStore) Get(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.data[key(symbol, interval)]
	if limit > 0 && len(cur) > limit {
		cur = cur[len(cur)-limit:]
	}
	out := make([]market.Candle, len(cur))
	copy(out, cur)
	return out, nil
}

func (s *MemoryKlineStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryKlineStore) Close() error { return nil }
