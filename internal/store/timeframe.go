package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timeframe K 线周期，如 "1d"、"1h"、"15m"。
type Timeframe string

// Duration 解析为时长；不认识的写法返回错误。
func (tf Timeframe) Duration() (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(string(tf)))
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	switch s[len(s)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
}

// Gap 缺失的连续 K 线区间（毫秒时间戳，闭区间）。
type Gap struct {
	From  int64 `json:"from"`
	To    int64 `json:"to"`
	Count int64 `json:"count"`
}

// IntegrityReport 序列在给定周期下的覆盖情况。
type IntegrityReport struct {
	Expected int64 `json:"expected"`
	Present  int64 `json:"present"`
	Gaps     []Gap `json:"gaps"`
}

func (r IntegrityReport) Complete() bool { return len(r.Gaps) == 0 }

// CheckIntegrity 按固定步长扫描 openTimes（升序）找出缺口。
// 指数行情存在休市日，调用方应只对连续周期（如加密市场）启用严格校验。
func CheckIntegrity(openTimes []int64, tf Timeframe) (IntegrityReport, error) {
	var report IntegrityReport
	report.Present = int64(len(openTimes))
	if len(openTimes) < 2 {
		report.Expected = report.Present
		return report, nil
	}
	d, err := tf.Duration()
	if err != nil {
		return report, err
	}
	step := d.Milliseconds()
	report.Expected = (openTimes[len(openTimes)-1]-openTimes[0])/step + 1

	cursor := openTimes[0]
	idx := 0
	for cursor <= openTimes[len(openTimes)-1] {
		if idx < len(openTimes) && openTimes[idx] == cursor {
			idx++
			cursor += step
			continue
		}
		gapStart := cursor
		var missing int64
		for cursor <= openTimes[len(openTimes)-1] {
			if idx < len(openTimes) && openTimes[idx] == cursor {
				break
			}
			cursor += step
			missing++
		}
		report.Gaps = append(report.Gaps, Gap{From: gapStart, To: cursor - step, Count: missing})
	}
	return report, nil
}
