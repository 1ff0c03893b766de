package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
	CORSOrigin     string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(addr string) ServerConfig {
	return ServerConfig{
		Addr:           addr,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConcurrent:  runtime.NumCPU() * 2,
	}
}

// NewRouter registers every route and middleware on a gin engine.
func NewRouter(cfg ServerConfig, h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(recovery(), requestLogger(), securityHeaders(cfg), limitConcurrency(cfg.MaxConcurrent), withTimeout(cfg.RequestTimeout))

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.HandleHealth)
	v1.GET("/stats", h.HandleStats)

	v1.GET("/cities", h.HandleListCities)
	v1.POST("/cities", h.HandleAddCity)
	v1.GET("/cities/nearest", h.HandleNearestCity)
	v1.GET("/cities/:name", h.HandleGetCity)
	v1.POST("/roads", h.HandleAddRoad)

	v1.GET("/requests", h.HandleListRequests)
	v1.POST("/requests", h.HandleRaiseRequest)
	v1.POST("/allocations", h.HandleAllocate)
	v1.GET("/audit/recent", h.HandleRecentAudit)

	v1.GET("/status", h.HandleListStatuses)
	v1.GET("/status/:city", h.HandleGetStatus)
	v1.POST("/status/:city/delivered", h.HandleMarkDelivered)

	v1.GET("/route", h.HandleRoute)
	v1.GET("/support", h.HandleSupport)
	v1.GET("/connectivity", h.HandleConnectivity)

	return r
}

// NewServer wraps a router in an http.Server.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		log.Infof("Received %s, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func securityHeaders(cfg ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Cache-Control", "no-store")
		if cfg.CORSOrigin != "" {
			c.Header("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}
		c.Next()
	}
}

func limitConcurrency(n int) gin.HandlerFunc {
	if n <= 0 {
		n = runtime.NumCPU() * 2
	}
	sem := make(chan struct{}, n)
	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			c.Header("Retry-After", "1")
			writeError(c, http.StatusServiceUnavailable, "service_unavailable", "")
			return
		}
		c.Next()
	}
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.Errorf("panic: %v", rec)
		writeError(c, http.StatusInternalServerError, "internal_error", "")
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Microsecond),
		}).Infof("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}
