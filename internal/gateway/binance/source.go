package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	gobinance "github.com/adshao/go-binance/v2"

	"spyglass/internal/logger"
	"spyglass/internal/market"
)

const maxHistoryLimit = 1000

// Source 通过官方 SDK 拉取 Binance 现货 K 线，实现 market.Source。
// 公开行情接口无需密钥。
type Source struct {
	client *gobinance.Client
}

func New() *Source {
	return &Source{client: gobinance.NewClient("", "")}
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	logger.Debugf("[binance] klines %s %s limit=%d", symbol, interval, limit)
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: binance klines %s: %v", market.ErrDataUnavailable, symbol, err)
	}
	out := make([]market.Candle, 0, len(klines))
	for _, k := range klines {
		out = append(out, market.Candle{
			OpenTime:  k.OpenTime,
			CloseTime: k.CloseTime,
			Open:      toFloat(k.Open),
			High:      toFloat(k.High),
			Low:       toFloat(k.Low),
			Close:     toFloat(k.Close),
			Volume:    toFloat(k.Volume),
		})
	}
	return market.Normalize(out), nil
}

func (s *Source) Close() error { return nil }

func toFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
