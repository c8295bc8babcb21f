package models

// Margin is the space reserved around the plot area
type Margin struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// Dimensions is the outer size of a widget and its margins
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// InnerWidth is the plot width. Negative results are a caller error.
func (d Dimensions) InnerWidth() float64 {
	return d.Width - d.Margin.Left - d.Margin.Right
}

// InnerHeight is the plot height. Negative results are a caller error.
func (d Dimensions) InnerHeight() float64 {
	return d.Height - d.Margin.Top - d.Margin.Bottom
}

// Pixel is a position on the drawing surface, in element coordinates
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HoverPosition is the snapped domain position under the pointer. When Valid
// is false the chart has no data and no marker should be drawn.
type HoverPosition struct {
	DomainX float64 `json:"domainX"`
	Valid   bool    `json:"valid"`
	Pixel   Pixel   `json:"pixel"`
}

// MetricPayload is one series in a fetched snapshot
type MetricPayload struct {
	Name       string   `json:"name"`
	Title      string   `json:"title,omitempty"`
	Color      string   `json:"color,omitempty"`
	Datapoints []Sample `json:"datapoints"`
}

// Snapshot is the document delivered by the metrics endpoint. Domain and
// range are the server's query window; chart extents are always derived from
// the samples themselves.
type Snapshot struct {
	Domain  []float64       `json:"domain,omitempty"`
	Range   []float64       `json:"range,omitempty"`
	Metrics []MetricPayload `json:"metrics"`
}

// Annotation marks an event on a time chart
type Annotation struct {
	Time        float64 `json:"time"`
	Title       string  `json:"title"`
	Link        string  `json:"link,omitempty"`
	// Description is the markdown body of the event, if the feed has one
	Description string `json:"description,omitempty"`
}
