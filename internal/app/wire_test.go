package app

import (
	"testing"

	"spyglass/internal/config"
)

func TestBuildServiceDefaults(t *testing.T) {
	svc, cache, err := BuildService(config.Config{})
	if err != nil {
		t.Fatalf("默认配置装配失败: %v", err)
	}
	defer cache.Close()
	if svc == nil {
		t.Fatalf("应返回服务实例")
	}
}

func TestBuildServiceUnknownSource(t *testing.T) {
	cfg := config.Config{}
	cfg.Market.Source = "nasdaq"
	if _, _, err := BuildService(cfg); err == nil {
		t.Fatalf("未知数据源应报错")
	}
}
