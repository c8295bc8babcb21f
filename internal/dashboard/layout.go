package dashboard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tsdash/internal/engine"
	"tsdash/internal/models"
)

// Layout is the dashboard definition file
type Layout struct {
	Title   string       `yaml:"title" json:"title"`
	Notes   string       `yaml:"notes" json:"notes,omitempty"`
	Widgets []WidgetSpec `yaml:"widgets" json:"widgets"`
}

// SeriesSpec predeclares a series so it keeps its title and color before data arrives
type SeriesSpec struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title,omitempty"`
	Color string `yaml:"color" json:"color,omitempty"`
}

// WidgetSpec describes one widget of the layout
type WidgetSpec struct {
	ID         string       `yaml:"id" json:"id"`
	Kind       string       `yaml:"kind" json:"kind"`
	Title      string       `yaml:"title" json:"title"`
	Notes      string       `yaml:"notes" json:"notes,omitempty"`
	MetricsURL string       `yaml:"metrics_url" json:"metricsUrl,omitempty"`
	Width      float64      `yaml:"width" json:"width"`
	Height     float64      `yaml:"height" json:"height"`
	Stat       string       `yaml:"stat" json:"stat,omitempty"`
	AddUnknown *bool        `yaml:"add_unknown" json:"addUnknown,omitempty"`
	Series     []SeriesSpec `yaml:"series" json:"series,omitempty"`
	Options    Overrides    `yaml:"options" json:"-"`
}

// Overrides are per-widget changes to the configured engine options
type Overrides struct {
	BucketSize          *float64       `yaml:"bucket_size"`
	LineMode            *string        `yaml:"line_mode"`
	CollisionDistance   *float64       `yaml:"collision_distance"`
	DefaultDisplayValue *string        `yaml:"default_display_value"`
	Unit                *string        `yaml:"unit"`
	Precision           *int           `yaml:"precision"`
	Margin              *models.Margin `yaml:"margin"`
}

// Apply returns base with the overrides set
func (o Overrides) Apply(base engine.Options) engine.Options {
	if o.BucketSize != nil {
		base.BucketSize = *o.BucketSize
	}
	if o.LineMode != nil {
		base.LineMode = engine.LineMode(*o.LineMode)
	}
	if o.CollisionDistance != nil {
		base.CollisionDistance = *o.CollisionDistance
	}
	if o.DefaultDisplayValue != nil {
		base.DefaultDisplayValue = *o.DefaultDisplayValue
	}
	if o.Unit != nil {
		base.Unit = *o.Unit
	}
	if o.Precision != nil {
		base.Precision = *o.Precision
	}
	if o.Margin != nil {
		base.Margin = *o.Margin
	}
	return base
}

const (
	defaultWidth  = 600
	defaultHeight = 240
)

// LoadLayout reads and parses a layout file
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	layout, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout %s: %w", path, err)
	}
	return layout, nil
}

// ParseLayout decodes YAML and fills in widget defaults
func ParseLayout(data []byte) (*Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, err
	}
	for i := range layout.Widgets {
		w := &layout.Widgets[i]
		if w.ID == "" {
			return nil, fmt.Errorf("widget %d has no id", i)
		}
		if w.Kind == "" {
			w.Kind = "line"
		}
		if w.Title == "" {
			w.Title = w.ID
		}
		if w.Width <= 0 {
			w.Width = defaultWidth
		}
		if w.Height <= 0 {
			w.Height = defaultHeight
		}
	}
	return &layout, nil
}
