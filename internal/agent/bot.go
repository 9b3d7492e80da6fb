package agent

import (
	"errors"
	"sync"
	"time"

	"spyglass/internal/logger"
)

// Version 对外展示的程序版本号。
const Version = "1.0.0"

var ErrAlreadyRunning = errors.New("bot already running")

// Status 机器人状态快照，供 /health 与 CLI 展示。
type Status struct {
	Active    bool      `json:"active"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// Bot 管理分析服务的生命周期：启动/停止与状态查询。
// 具体的行情拉取与信号计算在 backtest.Service 中，这里只负责
// 把"服务是否在跑"暴露给就绪探针。
type Bot struct {
	mu        sync.Mutex
	active    bool
	startedAt time.Time
}

func NewBot() *Bot { return &Bot{} }

// Start 标记服务进入运行态。重复启动返回 ErrAlreadyRunning。
func (b *Bot) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return ErrAlreadyRunning
	}
	b.active = true
	b.startedAt = time.Now()
	logger.Infof("[agent] bot started, version %s", Version)
	return nil
}

// Stop 标记服务停止。幂等。
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}
	b.active = false
	logger.Infof("[agent] bot stopped")
}

// Running 返回当前是否运行中，就绪探针用。
func (b *Bot) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Status 返回状态快照。
func (b *Bot) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{Active: b.active, Version: Version}
	if b.active {
		st.StartedAt = b.startedAt
		st.Uptime = time.Since(b.startedAt).Truncate(time.Second).String()
	}
	return st
}
