package charts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"tsdash/internal/engine"
	"tsdash/internal/logger"
)

// Source is a rendered widget the generator can export
type Source interface {
	ID() string
	Title() string
	Engine() *engine.Engine
}

// ChartGenerator exports widget frames as image files and builds the
// interactive snippets of the dashboard page
type ChartGenerator struct {
	outputDir string
	painter   *Painter
	log       *logger.Logger
}

// NewChartGenerator creates a new chart generator writing into outputDir
func NewChartGenerator(outputDir string) *ChartGenerator {
	return &ChartGenerator{
		outputDir: outputDir,
		painter:   NewPainter(),
		log:       logger.WithComponent("charts"),
	}
}

// RenderFrame paints the current scene of a widget
func (cg *ChartGenerator) RenderFrame(src Source, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := cg.painter.Paint(&buf, src.Engine().Scene(), format); err != nil {
		return nil, fmt.Errorf("widget %s: %w", src.ID(), err)
	}
	return buf.Bytes(), nil
}

// FrameName is the file name of a widget frame
func FrameName(id string, format Format) string {
	return id + "." + string(format)
}

// GenerateFrames writes one frame per widget into the output directory and
// returns the written paths. A widget that fails to paint is logged and skipped.
func (cg *ChartGenerator) GenerateFrames(sources []Source, format Format) ([]string, error) {
	if err := os.MkdirAll(cg.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var files []string
	for _, src := range sources {
		data, err := cg.RenderFrame(src, format)
		if err != nil {
			cg.log.Warn("Failed to render frame", logger.Fields{"widget": src.ID(), "error": err.Error()})
			continue
		}
		path := filepath.Join(cg.outputDir, FrameName(src.ID(), format))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return files, fmt.Errorf("failed to write frame %s: %w", path, err)
		}
		files = append(files, path)
	}

	cg.log.Info("Frames generated", logger.Fields{"count": len(files), "format": string(format), "dir": cg.outputDir})
	return files, nil
}
