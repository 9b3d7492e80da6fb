package backtest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spyglass/internal/health"
	"spyglass/internal/logger"
)

// HTTPServer 提供 Gin 接口：提交/查询回测任务、实时分析、健康探针。
type HTTPServer struct {
	addr   string
	svc    *Service
	router *gin.Engine
	srv    *http.Server
}

type HTTPConfig struct {
	Addr    string
	Svc     *Service
	Checker *health.Checker
}

func NewHTTPServer(cfg HTTPConfig) (*HTTPServer, error) {
	if cfg.Svc == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &HTTPServer{addr: cfg.Addr, svc: cfg.Svc, router: router}
	s.registerRoutes()
	if cfg.Checker != nil {
		cfg.Checker.Register(router)
	}
	return s, nil
}

func (s *HTTPServer) registerRoutes() {
	api := s.router.Group("/api")
	api.POST("/backtest/run", s.handleRun)
	api.GET("/backtest/jobs", s.handleJobs)
	api.GET("/backtest/jobs/:id", s.handleJob)
	api.GET("/analysis/live", s.handleLive)
}

func (s *HTTPServer) handleRun(c *gin.Context) {
	var req Params
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job := s.svc.SubmitBacktest(req)
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

func (s *HTTPServer) handleJob(c *gin.Context) {
	id := c.Param("id")
	job, ok := s.svc.JobSnapshot(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

func (s *HTTPServer) handleJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.svc.JobsSnapshot()})
}

func (s *HTTPServer) handleLive(c *gin.Context) {
	analysis, err := s.svc.LiveAnalysis(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}

// Start 阻塞运行直至 Shutdown。
func (s *HTTPServer) Start() error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}
	logger.Infof("[http] listening on %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅停机。
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Router 暴露底层路由（测试用）。
func (s *HTTPServer) Router() *gin.Engine { return s.router }
