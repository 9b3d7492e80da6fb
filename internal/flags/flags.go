package flags

import (
	"os"
	"strings"
	"sync"
)

// FlagUseMLEnsemble 控制是否启用 ML 集成信号路径。
const FlagUseMLEnsemble = "use-ml-ensemble"

// Provider 只读的功能开关查询接口。开关的存储与灰度编排由外部系统负责，
// 这里只消费布尔结论。
type Provider interface {
	Enabled(name string) bool
}

// Static 进程内固定开关表，配置文件装配后不再变更。
type Static struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewStatic(flags map[string]bool) *Static {
	cp := make(map[string]bool, len(flags))
	for k, v := range flags {
		cp[k] = v
	}
	return &Static{flags: cp}
}

func (s *Static) Enabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[name]
}

// Set 覆盖单个开关（测试用）。
func (s *Static) Set(name string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = on
}

// Env 环境变量开关：SPYGLASS_FLAG_<NAME>=1/true 视为开启，
// 名称中的 '-' 映射为 '_'。
type Env struct {
	Prefix string
}

func (e Env) Enabled(name string) bool {
	prefix := e.Prefix
	if prefix == "" {
		prefix = "SPYGLASS_FLAG_"
	}
	key := prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Chain 依次询问多个 Provider，任一开启即开启。
type Chain []Provider

func (c Chain) Enabled(name string) bool {
	for _, p := range c {
		if p != nil && p.Enabled(name) {
			return true
		}
	}
	return false
}
