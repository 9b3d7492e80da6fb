package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("空路径应回落默认配置: %v", err)
	}
	if cfg.Market.Symbol != "^SPX" || cfg.Market.Interval != "1d" {
		t.Fatalf("默认行情配置不符: %+v", cfg.Market)
	}
	if cfg.Backtest.InitialCapital != 100000 {
		t.Fatalf("默认本金不符: %v", cfg.Backtest.InitialCapital)
	}
	if !cfg.Flags.UseMLEnsemble {
		t.Fatalf("默认应启用 ML 集成")
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spyglass.toml")
	body := `
[log]
level = "debug"

[market]
source = "binance"
symbol = "BTCUSDT"
vix_symbol = ""

[backtest]
initial_capital = 50000.0

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("写临时配置失败: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("日志级别应被覆盖: %s", cfg.Log.Level)
	}
	if cfg.Market.Source != "binance" || cfg.Market.Symbol != "BTCUSDT" {
		t.Fatalf("行情配置应被覆盖: %+v", cfg.Market)
	}
	if cfg.Backtest.InitialCapital != 50000 {
		t.Fatalf("本金应被覆盖: %v", cfg.Backtest.InitialCapital)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("监听地址应被覆盖: %s", cfg.Server.Addr)
	}
	// 未写明的字段回落默认。
	if cfg.Market.Interval != "1d" || cfg.Market.History != 504 {
		t.Fatalf("缺省字段应补默认值: %+v", cfg.Market)
	}
	if cfg.Backtest.ExpiryDays != 30 {
		t.Fatalf("缺省到期天数应补 30, 实际=%d", cfg.Backtest.ExpiryDays)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("文件不存在应报错")
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("market = {{{"), 0o644); err != nil {
		t.Fatalf("写临时配置失败: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("非法 TOML 应报错")
	}
}
