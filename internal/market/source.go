package market

import (
	"context"
	"errors"
)

// ErrDataUnavailable 表示行情源不可用（网络/供应商故障）。
// 调用方视为致命错误并中止当前操作，不在内部重试。
var ErrDataUnavailable = errors.New("market data unavailable")

// Source 统一对接外部行情供应商。
type Source interface {
	// FetchHistory 拉取最近 limit 根 K 线并按时间升序返回。
	// 供应商故障以 ErrDataUnavailable 包装返回。
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	// Close 释放底层资源。
	Close() error
}
