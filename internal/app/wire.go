// Package app 按配置装配行情源、缓存与回测服务，供各入口复用。
package app

import (
	"fmt"

	"spyglass/internal/backtest"
	"spyglass/internal/config"
	"spyglass/internal/flags"
	"spyglass/internal/gateway/binance"
	"spyglass/internal/gateway/yahoo"
	"spyglass/internal/market"
	"spyglass/internal/predictor"
	"spyglass/internal/store"
)

// BuildService 装配完整的回测服务。返回的 store 由调用方负责 Close。
func BuildService(cfg config.Config) (*backtest.Service, store.KlineStore, error) {
	var source market.Source
	switch cfg.Market.Source {
	case "binance":
		source = binance.New()
	case "", "yahoo":
		source = yahoo.New(yahoo.Config{})
	default:
		return nil, nil, fmt.Errorf("unknown market source %q", cfg.Market.Source)
	}

	var cache store.KlineStore
	if cfg.Store.Path != "" {
		s, err := store.NewSQLiteKlineStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open kline store: %w", err)
		}
		cache = s
	} else {
		cache = store.NewMemoryKlineStore(0)
	}

	fp := flags.Chain{
		flags.Env{},
		flags.NewStatic(map[string]bool{flags.FlagUseMLEnsemble: cfg.Flags.UseMLEnsemble}),
	}
	svc, err := backtest.NewService(backtest.ServiceConfig{
		Symbol:    cfg.Market.Symbol,
		VIXSymbol: cfg.Market.VIXSymbol,
		Interval:  cfg.Market.Interval,
		History:   cfg.Market.History,
		// 加密市场连续交易，缺口意味着数据问题；指数有休市日，不启用。
		StrictIntegrity: cfg.Market.Source == "binance",
		Engine: backtest.Config{
			InitialCapital:  cfg.Backtest.InitialCapital,
			MaxRiskPerTrade: cfg.Backtest.MaxRiskPerTrade,
			ExpiryDays:      cfg.Backtest.ExpiryDays,
			Exit: backtest.DefaultExitRule{
				StopLossPct:     cfg.Backtest.StopLossPct,
				ProfitTargetPct: cfg.Backtest.ProfitTargetPct,
			},
		},
		Predictor: predictor.Config{
			Lookahead:     cfg.Predict.Lookahead,
			BuyThreshold:  cfg.Predict.BuyThreshold,
			SellThreshold: cfg.Predict.SellThreshold,
		},
	}, source, cache, fp)
	if err != nil {
		cache.Close()
		return nil, nil, err
	}
	return svc, cache, nil
}
