package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"spyglass/internal/logger"
)

// Snapshot 用无头浏览器把 HTML 报表截成 PNG。
// 机器上没有 Chrome 时返回错误，调用方按可选功能降级。
func Snapshot(ctx context.Context, htmlPath, pngPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	runCtx, cancelRun := context.WithTimeout(tabCtx, 30*time.Second)
	defer cancelRun()

	var buf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+abs),
		// 等 echarts 完成首帧渲染。
		chromedp.Sleep(2*time.Second),
		chromedp.FullScreenshot(&buf, 90),
	)
	if err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}
	if err := os.WriteFile(pngPath, buf, 0o644); err != nil {
		return err
	}
	logger.Infof("[report] snapshot written to %s", pngPath)
	return nil
}
