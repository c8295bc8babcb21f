// Package scale maps data-domain intervals to pixel ranges and back.
package scale

import (
	"math"
	"time"
)

// Linear interpolates between a domain interval and a range interval. Only
// the four endpoints are stored; setting new ones replaces the mapping.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear builds a scale from domain [d0,d1] to range [r0,r1]
func NewLinear(d0, d1, r0, r1 float64) *Linear {
	return &Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// SetDomain replaces the domain endpoints
func (s *Linear) SetDomain(d0, d1 float64) {
	s.d0, s.d1 = d0, d1
}

// SetRange replaces the range endpoints
func (s *Linear) SetRange(r0, r1 float64) {
	s.r0, s.r1 = r0, r1
}

// Domain returns the domain endpoints
func (s *Linear) Domain() (float64, float64) {
	return s.d0, s.d1
}

// Range returns the range endpoints
func (s *Linear) Range() (float64, float64) {
	return s.r0, s.r1
}

// Forward maps a domain value to a pixel. A zero-length domain maps everything to r0.
func (s *Linear) Forward(v float64) float64 {
	if s.d1 == s.d0 {
		return s.r0
	}
	return s.r0 + (v-s.d0)*(s.r1-s.r0)/(s.d1-s.d0)
}

// Inverse maps a pixel back to a domain value. A zero-length range maps everything to d0.
func (s *Linear) Inverse(px float64) float64 {
	if s.r1 == s.r0 {
		return s.d0
	}
	return s.d0 + (px-s.r0)*(s.d1-s.d0)/(s.r1-s.r0)
}

// Time is a Linear scale whose domain values are timestamps, stored as Unix milliseconds.
type Time struct {
	Linear
}

// InverseTime maps a pixel to a timestamp
func (s *Time) InverseTime(px float64) time.Time {
	return time.UnixMilli(int64(math.Round(s.Inverse(px)))).UTC()
}

// Snap aligns x to the nearest grid point origin + k*step. Halves round away
// from the origin.
func Snap(x, origin, step float64) float64 {
	return origin + step*math.Round((x-origin)/step)
}
