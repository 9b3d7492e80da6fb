package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config 应用配置（TOML）。所有字段缺省可用。
type Config struct {
	Log      LogConfig      `toml:"log"`
	Market   MarketConfig   `toml:"market"`
	Store    StoreConfig    `toml:"store"`
	Backtest BacktestConfig `toml:"backtest"`
	Predict  PredictConfig  `toml:"predictor"`
	Server   ServerConfig   `toml:"server"`
	Flags    FlagsConfig    `toml:"flags"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type MarketConfig struct {
	// Source 行情源："yahoo" 或 "binance"。
	Source string `toml:"source"`
	Symbol string `toml:"symbol"`
	// VIXSymbol 波动率指数（实时分析用），留空则不拉取。
	VIXSymbol string `toml:"vix_symbol"`
	Interval  string `toml:"interval"`
	// History 回测/训练拉取的 K 线数量。
	History int `toml:"history"`
}

type StoreConfig struct {
	// Path SQLite 缓存路径；留空时使用内存存储。
	Path string `toml:"path"`
}

type BacktestConfig struct {
	InitialCapital  float64 `toml:"initial_capital"`
	MaxRiskPerTrade float64 `toml:"max_risk_per_trade"`
	StopLossPct     float64 `toml:"stop_loss_pct"`
	ProfitTargetPct float64 `toml:"profit_target_pct"`
	ExpiryDays      int     `toml:"expiry_days"`
}

type PredictConfig struct {
	Lookahead     int     `toml:"lookahead"`
	BuyThreshold  float64 `toml:"buy_threshold"`
	SellThreshold float64 `toml:"sell_threshold"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type FlagsConfig struct {
	UseMLEnsemble bool `toml:"use_ml_ensemble"`
}

// Default 返回全默认配置。
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Market: MarketConfig{
			Source:    "yahoo",
			Symbol:    "^SPX",
			VIXSymbol: "^VIX",
			Interval:  "1d",
			History:   504,
		},
		Backtest: BacktestConfig{
			InitialCapital:  100000,
			MaxRiskPerTrade: 0.02,
			StopLossPct:     0.5,
			ProfitTargetPct: 0.25,
			ExpiryDays:      30,
		},
		Predict: PredictConfig{
			Lookahead:     5,
			BuyThreshold:  0.005,
			SellThreshold: 0.005,
		},
		Server: ServerConfig{Addr: ":8080"},
		Flags:  FlagsConfig{UseMLEnsemble: true},
	}
}

// Load 读取 TOML 配置并套用默认值；path 为空时直接返回默认配置。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	def := Default()
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Market.Source == "" {
		c.Market.Source = def.Market.Source
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = def.Market.Symbol
	}
	if c.Market.Interval == "" {
		c.Market.Interval = def.Market.Interval
	}
	if c.Market.History <= 0 {
		c.Market.History = def.Market.History
	}
	if c.Backtest.InitialCapital <= 0 {
		c.Backtest.InitialCapital = def.Backtest.InitialCapital
	}
	if c.Backtest.MaxRiskPerTrade <= 0 {
		c.Backtest.MaxRiskPerTrade = def.Backtest.MaxRiskPerTrade
	}
	if c.Backtest.StopLossPct <= 0 {
		c.Backtest.StopLossPct = def.Backtest.StopLossPct
	}
	if c.Backtest.ProfitTargetPct <= 0 {
		c.Backtest.ProfitTargetPct = def.Backtest.ProfitTargetPct
	}
	if c.Backtest.ExpiryDays <= 0 {
		c.Backtest.ExpiryDays = def.Backtest.ExpiryDays
	}
	if c.Predict.Lookahead <= 0 {
		c.Predict.Lookahead = def.Predict.Lookahead
	}
	if c.Predict.BuyThreshold <= 0 {
		c.Predict.BuyThreshold = def.Predict.BuyThreshold
	}
	if c.Predict.SellThreshold <= 0 {
		c.Predict.SellThreshold = def.Predict.SellThreshold
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	return c
}
