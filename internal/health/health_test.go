package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(c *Checker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c.Register(r)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLivenessAlwaysOK(t *testing.T) {
	r := newRouter(NewChecker("1.0.0"))
	for _, path := range []string{"/health", "/health/live"} {
		w := get(r, path)
		if w.Code != http.StatusOK {
			t.Fatalf("%s 应返回 200, 实际=%d", path, w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("响应解析失败: %v", err)
		}
		if body["status"] != "alive" {
			t.Fatalf("存活状态不符: %v", body["status"])
		}
	}
}

func TestReadinessGating(t *testing.T) {
	c := NewChecker("1.0.0")
	r := newRouter(c)

	if w := get(r, "/health/ready"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("未就绪应返回 503, 实际=%d", w.Code)
	}
	c.SetReady(true)
	if w := get(r, "/health/ready"); w.Code != http.StatusOK {
		t.Fatalf("就绪后应返回 200, 实际=%d", w.Code)
	}
	c.SetReady(false)
	if c.Ready() {
		t.Fatalf("就绪标记应可回退")
	}
}

func TestReadinessProbeFailure(t *testing.T) {
	c := NewChecker("1.0.0",
		Probe{Name: "ok", Check: func(context.Context) error { return nil }},
		Probe{Name: "db", Check: func(context.Context) error { return errors.New("down") }},
	)
	c.SetReady(true)
	w := get(newRouter(c), "/health/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("探针失败应返回 503, 实际=%d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	checks := body["checks"].(map[string]any)
	db := checks["db"].(map[string]any)
	if db["status"] != "unhealthy" || db["error"] != "down" {
		t.Fatalf("失败探针详情不符: %v", db)
	}
	if checks["ok"].(map[string]any)["status"] != "healthy" {
		t.Fatalf("健康探针详情不符: %v", checks["ok"])
	}
}

func TestStartupProbe(t *testing.T) {
	w := get(newRouter(NewChecker("1.0.0")), "/health/startup")
	if w.Code != http.StatusOK {
		t.Fatalf("启动探针应返回 200, 实际=%d", w.Code)
	}
	// 刚启动的进程处于 starting 阶段。
	if !strings.Contains(w.Body.String(), `"status":"starting"`) {
		t.Fatalf("启动初期状态应为 starting: %s", w.Body.String())
	}
}

func TestMetricsFormat(t *testing.T) {
	c := NewChecker("1.2.3")
	c.SetReady(true)
	w := get(newRouter(c), "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics 应返回 200, 实际=%d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"spyglass_uptime_seconds",
		"spyglass_ready 1",
		`spyglass_info{version="1.2.3"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("指标输出缺少 %q:\n%s", want, body)
		}
	}
}
