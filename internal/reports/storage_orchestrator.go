package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tsdash/internal/charts"
	"tsdash/internal/dashboard"
	"tsdash/internal/engine"
	"tsdash/internal/logger"
	"tsdash/internal/storage"
)

// Manifest describes one stored export
type Manifest struct {
	Title       string           `json:"title"`
	GeneratedAt time.Time        `json:"generated_at"`
	Widgets     []ManifestWidget `json:"widgets"`
}

// ManifestWidget lists the files and legend of one widget at export time
type ManifestWidget struct {
	ID     string               `json:"id"`
	Title  string               `json:"title"`
	Kind   string               `json:"kind"`
	State  string               `json:"state"`
	Files  []string             `json:"files"`
	Legend []engine.LegendEntry `json:"legend"`
}

// ExportFile is one file of a captured export
type ExportFile struct {
	Name string
	Data []byte
}

// Export is a captured dashboard: frames, page and manifest held in memory
// until stored
type Export struct {
	Timestamp time.Time
	Files     []ExportFile
	Manifest  Manifest
}

// StorageOrchestrator captures dashboard exports and writes them to storage
type StorageOrchestrator struct {
	client  storage.StorageClient
	charts  *charts.ChartGenerator
	pages   *PageBuilder
	formats []charts.Format
	log     *logger.Logger
}

// NewStorageOrchestrator creates an orchestrator exporting frames in the given formats
func NewStorageOrchestrator(client storage.StorageClient, cg *charts.ChartGenerator, pages *PageBuilder, formats ...charts.Format) *StorageOrchestrator {
	if len(formats) == 0 {
		formats = []charts.Format{charts.SVG, charts.PNG}
	}
	return &StorageOrchestrator{
		client:  client,
		charts:  cg,
		pages:   pages,
		formats: formats,
		log:     logger.WithComponent("export"),
	}
}

// Capture renders every widget frame and the page. It reads chart state, so
// it must run on the dashboard event loop.
func (o *StorageOrchestrator) Capture(d *dashboard.Dashboard, now time.Time) (*Export, error) {
	exp := &Export{
		Timestamp: now,
		Manifest:  Manifest{Title: d.Title, GeneratedAt: now.UTC()},
	}

	for _, w := range d.Widgets() {
		entry := ManifestWidget{
			ID:     w.ID(),
			Title:  WidgetTitle(w.ID(), w.Title()),
			Kind:   w.Engine().Kind().Name(),
			State:  w.Engine().State().String(),
			Legend: w.Engine().Legend(),
		}
		for _, f := range o.formats {
			data, err := o.charts.RenderFrame(w, f)
			if err != nil {
				return nil, err
			}
			name := charts.FrameName(w.ID(), f)
			exp.Files = append(exp.Files, ExportFile{Name: name, Data: data})
			entry.Files = append(entry.Files, name)
		}
		exp.Manifest.Widgets = append(exp.Manifest.Widgets, entry)
	}

	if o.pages != nil {
		page, err := o.pages.PageData(d, func(id string) string { return charts.FrameName(id, o.formats[0]) })
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := o.pages.Render(&buf, page); err != nil {
			return nil, err
		}
		exp.Files = append(exp.Files, ExportFile{Name: "index.html", Data: buf.Bytes()})
	}
	return exp, nil
}

// Store writes the export files and then its manifest. A folder without a
// manifest is an incomplete export and is not listed.
func (o *StorageOrchestrator) Store(ctx context.Context, exp *Export) (string, error) {
	for _, f := range exp.Files {
		if _, err := o.client.StoreFile(ctx, f.Data, f.Name, exp.Timestamp); err != nil {
			return "", fmt.Errorf("failed to store %s: %w", f.Name, err)
		}
	}

	manifest, err := json.MarshalIndent(exp.Manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	if _, err := o.client.StoreFile(ctx, manifest, storage.ManifestName, exp.Timestamp); err != nil {
		return "", fmt.Errorf("failed to store manifest: %w", err)
	}

	folder := storage.GenerateExportFolderPath(exp.Timestamp)
	o.log.Info("Export stored", logger.Fields{"folder": folder, "files": len(exp.Files) + 1})
	return folder, nil
}

// LatestManifest loads the manifest of the newest stored export
func (o *StorageOrchestrator) LatestManifest(ctx context.Context) (string, *Manifest, error) {
	folders, err := o.client.ListExports(ctx, 1)
	if err != nil {
		return "", nil, err
	}
	if len(folders) == 0 {
		return "", nil, fmt.Errorf("no exports found")
	}
	data, err := o.client.GetFile(ctx, folders[0]+"/"+storage.ManifestName)
	if err != nil {
		return "", nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return folders[0], &m, nil
}
