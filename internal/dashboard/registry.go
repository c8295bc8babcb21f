package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tsdash/internal/engine"
	"tsdash/internal/stats"
)

var (
	// ErrUnknownWidget is returned for widget ids or kinds the dashboard does not know
	ErrUnknownWidget = errors.New("unknown widget")
	// ErrUnknownSeries is returned when a widget has no series of the given name
	ErrUnknownSeries = errors.New("unknown series")
	// ErrDuplicateWidget is returned when two widgets or two registry entries share a key
	ErrDuplicateWidget = errors.New("duplicate widget")
)

// KindBuilder creates the chart kind for a widget
type KindBuilder func(spec WidgetSpec, opts engine.Options) (engine.Kind, error)

// Entry binds a widget kind name to its builder. AddUnknown is the default
// merge policy for series a snapshot introduces.
type Entry struct {
	Kind       string
	Build      KindBuilder
	AddUnknown bool
}

// Registry maps widget kind names to builders. It is built once at startup
// and never changes afterwards.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry builds a registry, failing on the first duplicate kind
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Kind == "" || e.Build == nil {
			return nil, fmt.Errorf("registry entry %q is incomplete", e.Kind)
		}
		if _, ok := r.entries[e.Kind]; ok {
			return nil, fmt.Errorf("%w: kind %q registered twice", ErrDuplicateWidget, e.Kind)
		}
		r.entries[e.Kind] = e
	}
	return r, nil
}

// DefaultEntries are the built-in widget kinds
func DefaultEntries() []Entry {
	chartKind := func(spec WidgetSpec, opts engine.Options) (engine.Kind, error) {
		return engine.KindFor(spec.Kind, opts)
	}
	return []Entry{
		{Kind: "line", Build: chartKind},
		{Kind: "histogram", Build: chartKind, AddUnknown: true},
		{Kind: "pie", Build: chartKind, AddUnknown: true},
		{Kind: "value", Build: func(spec WidgetSpec, opts engine.Options) (engine.Kind, error) {
			st, err := stats.ParseStat(spec.Stat)
			if err != nil {
				return nil, fmt.Errorf("widget %s: %w", spec.ID, err)
			}
			return &Value{Stat: st}, nil
		}},
	}
}

// DefaultRegistry returns a registry of the built-in kinds
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultEntries()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds the entry for a kind
func (r *Registry) Lookup(kind string) (Entry, error) {
	e, ok := r.entries[kind]
	if !ok {
		return Entry{}, fmt.Errorf("%w: no kind %q (known: %s)", ErrUnknownWidget, kind, strings.Join(r.Kinds(), ", "))
	}
	return e, nil
}

// Kinds lists the registered kind names in sorted order
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
