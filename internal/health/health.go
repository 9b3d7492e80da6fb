package health

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe 一个命名的就绪检查（例如存储连通性）。
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Checker 健康检查器。显式构造、依赖注入，不做进程级单例。
type Checker struct {
	startTime time.Time
	ready     atomic.Bool
	probes    []Probe
	version   string
}

func NewChecker(version string, probes ...Probe) *Checker {
	if version == "" {
		version = "dev"
	}
	return &Checker{startTime: time.Now(), probes: probes, version: version}
}

// SetReady 标记应用是否就绪。
func (c *Checker) SetReady(ready bool) { c.ready.Store(ready) }

// Ready 返回当前就绪标记。
func (c *Checker) Ready() bool { return c.ready.Load() }

func (c *Checker) uptime() float64 { return time.Since(c.startTime).Seconds() }

// Register 把健康探针路由挂到 gin 路由器上。
func (c *Checker) Register(r *gin.Engine) {
	r.GET("/health", c.handleLive)
	r.GET("/health/live", c.handleLive)
	r.GET("/health/ready", c.handleReady)
	r.GET("/health/startup", c.handleStartup)
	r.GET("/metrics", c.handleMetrics)
}

func (c *Checker) handleLive(g *gin.Context) {
	g.JSON(http.StatusOK, gin.H{
		"status":         "alive",
		"uptime_seconds": c.uptime(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (c *Checker) handleReady(g *gin.Context) {
	checks := gin.H{}
	status := "ready"
	code := http.StatusOK
	for _, p := range c.probes {
		ctx, cancel := context.WithTimeout(g.Request.Context(), 2*time.Second)
		err := p.Check(ctx)
		cancel()
		if err != nil {
			checks[p.Name] = gin.H{"status": "unhealthy", "error": err.Error()}
			status = "not_ready"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[p.Name] = gin.H{"status": "healthy"}
	}
	appStatus := "ready"
	if !c.Ready() {
		appStatus = "not_ready"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	checks["application"] = gin.H{"status": appStatus, "uptime_seconds": c.uptime()}
	g.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (c *Checker) handleStartup(g *gin.Context) {
	uptime := c.uptime()
	status := "ready"
	if uptime < 30 {
		status = "starting"
	}
	g.JSON(http.StatusOK, gin.H{
		"status":         status,
		"uptime_seconds": uptime,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics 输出 Prometheus 文本格式的最小指标集。
func (c *Checker) handleMetrics(g *gin.Context) {
	ready := 0
	if c.Ready() {
		ready = 1
	}
	body := fmt.Sprintf(`# HELP spyglass_uptime_seconds Application uptime in seconds
# TYPE spyglass_uptime_seconds counter
spyglass_uptime_seconds %f

# HELP spyglass_ready Application readiness status
# TYPE spyglass_ready gauge
spyglass_ready %d

# HELP spyglass_info Application information
# TYPE spyglass_info gauge
spyglass_info{version=%q} 1
`, c.uptime(), ready, c.version)
	g.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}
