package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"sheetdiff/domain/run"
	"sheetdiff/internal"
	"sheetdiff/internal/config"
	"sheetdiff/ports"
)

// Comparer runs one comparison; app.CompareService satisfies it
type Comparer interface {
	Compare(ctx context.Context, req *run.Request, sink ports.ProgressSink) (*run.Summary, error)
}

// Server is the HTTP caller of the comparison engine
type Server struct {
	config   *config.Config
	compare  Comparer
	history  ports.RunRepository
	hub      *ProgressHub
	limiter  *semaphore.Weighted
	logger   *internal.Logger
	router   *gin.Engine
	inflight sync.WaitGroup
	now      func() time.Time
}

// NewServer builds the router. history may be nil when run history is disabled.
func NewServer(cfg *config.Config, compare Comparer, history ports.RunRepository, hub *ProgressHub, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	s := &Server{
		config:  cfg,
		compare: compare,
		history: history,
		hub:     hub,
		limiter: semaphore.NewWeighted(int64(cfg.Server.MaxConcurrent)),
		logger:  logger.With("api"),
		now:     time.Now,
	}
	s.router = s.routes()
	return s
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.cors())
	r.MaxMultipartMemory = 32 << 20

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.POST("/compare", s.handleCompare)
	api.GET("/events", s.hub.HandleSSE)
	api.GET("/download/:filename", s.handleDownload)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/report", s.handleRunReport)
	return r
}

// Wait blocks until background comparisons have finished or ctx is done
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[HTTP] %s %s -> %d in %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.config.Server.CORSAllowOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Cache-Control")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
