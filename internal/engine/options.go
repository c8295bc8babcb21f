package engine

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"tsdash/internal/hover"
	"tsdash/internal/models"
)

// ErrInvalidOptions is wrapped by every Options.Validate failure
var ErrInvalidOptions = errors.New("invalid chart options")

// LineMode selects how line series are drawn between samples
type LineMode string

const (
	Smooth LineMode = "smooth"
	Dotted LineMode = "dotted"
)

// Options configure one chart engine
type Options struct {
	// BucketSize is the spacing between expected sample x values
	BucketSize          float64
	LineMode            LineMode
	Margin              models.Margin
	CollisionDistance   float64
	DefaultDisplayValue string
	// LabelWidth is the room one x tick label needs, in pixels
	LabelWidth  float64
	LabelHeight float64
	// TimeAxis formats x ticks as clock times (x in Unix milliseconds)
	TimeAxis  bool
	Location  *time.Location
	Precision int
	Unit      string
}

// DefaultOptions returns the options used when a widget sets none
func DefaultOptions() Options {
	return Options{
		BucketSize:          60000,
		LineMode:            Smooth,
		Margin:              models.Margin{Top: 20, Right: 20, Bottom: 30, Left: 50},
		CollisionDistance:   hover.DefaultCollisionDistance,
		DefaultDisplayValue: "-",
		LabelWidth:          80,
		LabelHeight:         40,
		TimeAxis:            true,
		Location:            time.UTC,
		Precision:           2,
	}
}

// Validate checks the enumerated and numeric options
func (o Options) Validate() error {
	if o.BucketSize <= 0 {
		return fmt.Errorf("%w: bucket size must be positive, got %v", ErrInvalidOptions, o.BucketSize)
	}
	switch o.LineMode {
	case Smooth, Dotted:
	default:
		return fmt.Errorf("%w: unknown line mode %q", ErrInvalidOptions, o.LineMode)
	}
	if o.CollisionDistance < 0 {
		return fmt.Errorf("%w: collision distance must not be negative", ErrInvalidOptions)
	}
	if o.LabelWidth <= 0 || o.LabelHeight <= 0 {
		return fmt.Errorf("%w: label size must be positive", ErrInvalidOptions)
	}
	if o.Precision < 0 {
		return fmt.Errorf("%w: precision must not be negative", ErrInvalidOptions)
	}
	m := o.Margin
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("%w: margins must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Format renders a value with the configured precision and unit
func (o Options) Format(v float64) string {
	out := strconv.FormatFloat(v, 'f', o.Precision, 64)
	if o.Unit != "" {
		out += " " + o.Unit
	}
	return out
}
