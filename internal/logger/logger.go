package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level 日志级别。
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu       sync.RWMutex
	minLevel = LevelInfo
	std      = log.New(os.Stderr, "", 0)
)

// SetLevel 设置全局最低输出级别。
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// ParseLevel 将字符串解析为级别，未知值回落到 info。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetOutput 重定向日志输出（测试用）。
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std = log.New(w, "", 0)
}

func logf(l Level, tag, format string, args ...any) {
	mu.RLock()
	enabled := l >= minLevel
	lg := std
	mu.RUnlock()
	if !enabled {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	lg.Output(3, fmt.Sprintf("%s %s %s", ts, tag, fmt.Sprintf(format, args...)))
}

func Debugf(format string, args ...any) { logf(LevelDebug, "DEBUG", format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, "INFO ", format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, "WARN ", format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, "ERROR", format, args...) }
