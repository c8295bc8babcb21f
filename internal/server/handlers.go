package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tsdash/internal/charts"
	"tsdash/internal/config"
	"tsdash/internal/dashboard"
	"tsdash/internal/engine"
	"tsdash/internal/logger"
	"tsdash/internal/models"
	"tsdash/internal/reports"
)

type errResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type widgetResponse struct {
	ID     string               `json:"id"`
	Title  string               `json:"title"`
	Kind   string               `json:"kind"`
	State  string               `json:"state"`
	Legend []engine.LegendEntry `json:"legend"`
}

type pointerRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type pointerResponse struct {
	Hover  models.HoverPosition `json:"hover"`
	State  string               `json:"state"`
	Legend []engine.LegendEntry `json:"legend"`
}

type snapshotResponse struct {
	OK     bool `json:"ok"`
	Series int  `json:"series"`
}

type exportResponse struct {
	OK     bool   `json:"ok"`
	Folder string `json:"folder"`
	Files  int    `json:"files"`
}

// fail maps an error to a status code and writes it
func fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, dashboard.ErrUnknownWidget), errors.Is(err, dashboard.ErrUnknownSeries):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, dashboard.ErrStopped), errors.Is(err, context.Canceled):
		status, code = http.StatusServiceUnavailable, "UNAVAILABLE"
	}
	c.JSON(status, errResponse{OK: false, Error: code, Message: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errResponse{OK: false, Error: "VALIDATION_ERROR", Message: msg})
}

// onWidget runs fn on the dashboard event loop with the widget named in the path
func (s *Server) onWidget(c *gin.Context, fn func(w *dashboard.Widget) error) error {
	id := c.Param("id")
	return s.Dashboard.Do(c.Request.Context(), func() error {
		w, err := s.Dashboard.Widget(id)
		if err != nil {
			return err
		}
		return fn(w)
	})
}

func describe(w *dashboard.Widget) widgetResponse {
	return widgetResponse{
		ID:     w.ID(),
		Title:  reports.WidgetTitle(w.ID(), w.Title()),
		Kind:   w.Engine().Kind().Name(),
		State:  w.Engine().State().String(),
		Legend: w.Engine().Legend(),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.GetVersion(),
		"widgets":   len(s.Dashboard.Widgets()),
	})
}

// handleRoot serves the dashboard page
func (s *Server) handleRoot(c *gin.Context) {
	var buf bytes.Buffer
	err := s.Dashboard.Do(c.Request.Context(), func() error {
		page, err := s.Pages.PageData(s.Dashboard, func(id string) string { return "/widgets/" + id + "/frame.svg" })
		if err != nil {
			return err
		}
		return s.Pages.Render(&buf, page)
	})
	if err != nil {
		s.log.Error("Failed to build dashboard page", err)
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleListWidgets(c *gin.Context) {
	var out []widgetResponse
	err := s.Dashboard.Do(c.Request.Context(), func() error {
		for _, w := range s.Dashboard.Widgets() {
			out = append(out, describe(w))
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleFrame(format charts.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data []byte
		err := s.onWidget(c, func(w *dashboard.Widget) error {
			var err error
			data, err = s.Charts.RenderFrame(w, format)
			return err
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, format.ContentType(), data)
	}
}

func (s *Server) handleLegend(c *gin.Context) {
	var legend []engine.LegendEntry
	err := s.onWidget(c, func(w *dashboard.Widget) error {
		legend = w.Engine().Legend()
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, legend)
}

// handlePointerMove feeds a pointer position in element pixels to the widget
func (s *Server) handlePointerMove(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.X == nil || req.Y == nil {
		badRequest(c, "x and y are required")
		return
	}

	var resp pointerResponse
	err := s.onWidget(c, func(w *dashboard.Widget) error {
		resp.Hover = w.Engine().PointerMove(*req.X, *req.Y)
		resp.State = w.Engine().State().String()
		resp.Legend = w.Engine().Legend()
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePointerLeave(c *gin.Context) {
	var resp widgetResponse
	err := s.onWidget(c, func(w *dashboard.Widget) error {
		w.Engine().PointerLeave()
		resp = describe(w)
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleRemoveSeries drops one series from a widget
func (s *Server) handleRemoveSeries(c *gin.Context) {
	var resp widgetResponse
	err := s.onWidget(c, func(w *dashboard.Widget) error {
		if err := w.RemoveSeries(c.Param("name")); err != nil {
			return err
		}
		resp = describe(w)
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	s.log.Info("Series removed", logger.Fields{"widget": resp.ID, "series": c.Param("name")})
	c.JSON(http.StatusOK, resp)
}

// handleSnapshot merges a pushed snapshot with the same policy as polling
func (s *Server) handleSnapshot(c *gin.Context) {
	var snap models.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		badRequest(c, err.Error())
		return
	}

	var n int
	err := s.onWidget(c, func(w *dashboard.Widget) error {
		n = w.Apply(&snap)
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	s.log.Info("Snapshot pushed", logger.Fields{"widget": c.Param("id"), "series": n})
	c.JSON(http.StatusOK, snapshotResponse{OK: true, Series: n})
}

// handleExport captures every frame on the event loop and stores it off the loop
func (s *Server) handleExport(c *gin.Context) {
	if s.Exports == nil {
		c.JSON(http.StatusServiceUnavailable, errResponse{OK: false, Error: "UNAVAILABLE", Message: "storage is not configured"})
		return
	}

	var exp *reports.Export
	err := s.Dashboard.Do(c.Request.Context(), func() error {
		var err error
		exp, err = s.Exports.Capture(s.Dashboard, time.Now())
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}

	folder, err := s.Exports.Store(c.Request.Context(), exp)
	if err != nil {
		s.log.Error("Export failed", err)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, exportResponse{OK: true, Folder: folder, Files: len(exp.Files) + 1})
}

func (s *Server) handleLatestExport(c *gin.Context) {
	if s.Exports == nil {
		c.JSON(http.StatusServiceUnavailable, errResponse{OK: false, Error: "UNAVAILABLE", Message: "storage is not configured"})
		return
	}
	folder, manifest, err := s.Exports.LatestManifest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, errResponse{OK: false, Error: "NOT_FOUND", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folder": folder, "manifest": manifest})
}
