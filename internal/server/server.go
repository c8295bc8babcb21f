package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tsdash/internal/charts"
	"tsdash/internal/config"
	"tsdash/internal/dashboard"
	"tsdash/internal/logger"
	"tsdash/internal/reports"
	"tsdash/internal/storage"
)

// Server exposes a dashboard over HTTP
type Server struct {
	Config    *config.Config
	Dashboard *dashboard.Dashboard
	Charts    *charts.ChartGenerator
	Pages     *reports.PageBuilder
	Exports   *reports.StorageOrchestrator
	Storage   storage.StorageClient

	log *logger.Logger
}

// NewServer creates a new server instance. A nil storage client disables exports.
func NewServer(cfg *config.Config, d *dashboard.Dashboard, st storage.StorageClient) (*Server, error) {
	cg := charts.NewChartGenerator(cfg.LocalFramesDir)
	pages, err := reports.NewPageBuilder(cg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize page builder: %w", err)
	}

	s := &Server{
		Config:    cfg,
		Dashboard: d,
		Charts:    cg,
		Pages:     pages,
		Storage:   st,
		log:       logger.WithComponent("server"),
	}
	if st != nil {
		s.Exports = reports.NewStorageOrchestrator(st, cg, pages)
	}
	return s, nil
}

// SetupRoutes configures HTTP routes for the server
func (s *Server) SetupRoutes() *gin.Engine {
	if s.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/", s.handleRoot)

	r.GET("/widgets", s.handleListWidgets)
	r.GET("/widgets/:id/frame.svg", s.handleFrame(charts.SVG))
	r.GET("/widgets/:id/frame.png", s.handleFrame(charts.PNG))
	r.GET("/widgets/:id/legend", s.handleLegend)
	r.POST("/widgets/:id/pointer", s.handlePointerMove)
	r.DELETE("/widgets/:id/pointer", s.handlePointerLeave)
	r.DELETE("/widgets/:id/series/:name", s.handleRemoveSeries)

	r.POST("/snapshots/:id", s.handleSnapshot)
	r.POST("/export", s.handleExport)
	r.GET("/exports/latest", s.handleLatestExport)

	return r
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.Config.Port,
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", logger.Fields{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Close cleans up server resources
func (s *Server) Close() error {
	if s.Storage != nil {
		return s.Storage.Close()
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("Request handled", logger.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}
