package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spyglass/internal/app"
	"spyglass/internal/backtest"
	"spyglass/internal/config"
	"spyglass/internal/logger"
	"spyglass/internal/report"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "TOML 配置路径（留空用默认配置）")
		mode     = flag.String("mode", "backtest", "运行模式：backtest / live")
		symbol   = flag.String("symbol", "", "标的代码，覆盖配置")
		history  = flag.Int("history", 0, "拉取 K 线数量，覆盖配置")
		mlFlag   = flag.String("ml", "", "信号路径：on 用 ML 集成，off 纯规则，留空跟随配置")
		chartOut = flag.String("chart", "", "回测图表 HTML 输出路径")
		pngOut   = flag.String("png", "", "图表 PNG 截图路径（需本机有 Chrome，依赖 -chart）")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cache, err := app.BuildService(cfg)
	if err != nil {
		logger.Errorf("[main] %v", err)
		os.Exit(1)
	}
	defer cache.Close()

	switch *mode {
	case "live":
		analysis, err := svc.LiveAnalysis(ctx)
		if err != nil {
			logger.Errorf("[main] live analysis: %v", err)
			os.Exit(1)
		}
		fmt.Print(report.LiveTable(analysis))
	case "backtest":
		params := backtest.Params{Symbol: *symbol, History: *history}
		switch *mlFlag {
		case "on":
			v := true
			params.UseMLEnsemble = &v
		case "off":
			v := false
			params.UseMLEnsemble = &v
		}
		rep, err := svc.RunBacktest(ctx, params)
		if err != nil {
			logger.Errorf("[main] backtest: %v", err)
			os.Exit(1)
		}
		fmt.Print(report.BacktestTable(rep))
		if *chartOut != "" {
			if err := writeChart(ctx, svc, rep, *chartOut, *pngOut); err != nil {
				logger.Errorf("[main] chart: %v", err)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

// writeChart 回测后再从缓存取一次行情画图；PNG 截图失败只降级不报错退出。
func writeChart(ctx context.Context, svc *backtest.Service, rep backtest.Report, htmlPath, pngPath string) error {
	candles, err := svc.Candles(ctx, rep.Symbol)
	if err != nil {
		return err
	}
	if err := report.WriteChart(htmlPath, candles, rep); err != nil {
		return err
	}
	logger.Infof("[main] chart written to %s", htmlPath)
	if pngPath == "" {
		return nil
	}
	snapCtx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	if err := report.Snapshot(snapCtx, htmlPath, pngPath); err != nil {
		logger.Warnf("[main] snapshot skipped: %v", err)
	}
	return nil
}
