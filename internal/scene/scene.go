// Package scene is the retained drawing surface the render engine writes into.
// Nodes are keyed; rendering the same data twice updates nodes in place
// instead of appending new ones.
package scene

import (
	"fmt"
	"io"
	"strings"
)

// Kind is the type of a scene node
type Kind string

const (
	Group  Kind = "group"
	Path   Kind = "path"
	Rect   Kind = "rect"
	Arc    Kind = "arc"
	Circle Kind = "circle"
	Line   Kind = "line"
	Text   Kind = "text"
)

// Anchor is the horizontal alignment of a text node
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Style holds paint attributes. Colors are hex tokens ("#rrggbb"); an empty
// color means no stroke or no fill.
type Style struct {
	Stroke      string
	Fill        string
	StrokeWidth float64
	Dash        []float64
	FontSize    float64
	Anchor      Anchor
}

// Node is one element of the scene. Geometry fields are interpreted per kind:
//
//	rect:   X, Y, W, H
//	circle: X, Y (center), R
//	line:   X, Y to X2, Y2
//	text:   X, Y baseline origin, Text
//	arc:    X, Y (center), R outer radius, Inner radius, Start and Sweep in radians
//	path:   Commands
type Node struct {
	Key      string
	Kind     Kind
	X, Y     float64
	X2, Y2   float64
	W, H     float64
	R, Inner float64
	Start    float64
	Sweep    float64
	Commands []Command
	Text     string
	Style    Style
	Opacity  float64

	children []*Node
	index    map[string]int
}

// Scene is a sized root group
type Scene struct {
	Width, Height float64
	Root          *Node
}

// New creates an empty scene
func New(width, height float64) *Scene {
	return &Scene{Width: width, Height: height, Root: NewNode("root", Group)}
}

// NewNode creates a detached node with full opacity
func NewNode(key string, kind Kind) *Node {
	return &Node{Key: key, Kind: kind, Opacity: 1}
}

// Children returns the child nodes in draw order
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Len returns the number of direct children
func (n *Node) Len() int {
	return len(n.children)
}

// Find returns the direct child with the given key
func (n *Node) Find(key string) (*Node, bool) {
	i, ok := n.index[key]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

// Child returns the child with the given key, appending a new one when it
// does not exist. A child of a different kind is replaced in place.
func (n *Node) Child(key string, kind Kind) *Node {
	if n.index == nil {
		n.index = make(map[string]int)
	}
	if i, ok := n.index[key]; ok {
		c := n.children[i]
		if c.Kind != kind {
			c = NewNode(key, kind)
			n.children[i] = c
		}
		return c
	}
	c := NewNode(key, kind)
	n.index[key] = len(n.children)
	n.children = append(n.children, c)
	return c
}

// Remove drops a direct child. Returns false when no child has the key.
func (n *Node) Remove(key string) bool {
	i, ok := n.index[key]
	if !ok {
		return false
	}
	n.children = append(n.children[:i], n.children[i+1:]...)
	delete(n.index, key)
	for j := i; j < len(n.children); j++ {
		n.index[n.children[j].Key] = j
	}
	return true
}

// Clear removes every child
func (n *Node) Clear() {
	n.children = nil
	n.index = nil
}

// Join reconciles the children of n against keys: children whose key is not
// listed are removed, missing ones are appended, existing ones are kept in
// place. The returned nodes follow the order of keys. A key listed more than
// once gets its own node per occurrence, keyed "key#2", "key#3" and so on.
func (n *Node) Join(keys []string, kind Kind) []*Node {
	keys = uniqueKeys(keys)
	wanted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	for _, c := range n.Children() {
		if _, ok := wanted[c.Key]; !ok {
			n.Remove(c.Key)
		}
	}

	out := make([]*Node, len(keys))
	for i, k := range keys {
		out[i] = n.Child(k, kind)
	}
	return out
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]int, len(keys))
	for _, k := range keys {
		seen[k] = 0
	}
	var out []string
	for i, k := range keys {
		if seen[k] == 0 {
			seen[k] = 1
			continue
		}
		if out == nil {
			out = append([]string(nil), keys...)
		}
		for {
			seen[k]++
			key := fmt.Sprintf("%s#%d", k, seen[k])
			if _, taken := seen[key]; !taken {
				seen[key] = 1
				out[i] = key
				break
			}
		}
	}
	if out == nil {
		return keys
	}
	return out
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the subtree, n included
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Lookup resolves a slash separated key path below n ("series/cpu")
func (n *Node) Lookup(path string) (*Node, bool) {
	cur := n
	for _, part := range strings.Split(path, "/") {
		next, ok := cur.Find(part)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Dump writes a canonical text form of the subtree. Two scenes with the same
// dump draw the same picture.
func (n *Node) Dump(w io.Writer) error {
	var err error
	n.Walk(func(node *Node, depth int) bool {
		if err != nil {
			return false
		}
		_, err = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), node.describe())
		return true
	})
	return err
}

// String returns the dump of the subtree
func (n *Node) String() string {
	var b strings.Builder
	_ = n.Dump(&b)
	return b.String()
}

func (n *Node) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s] op=%g", n.Kind, n.Key, n.Opacity)
	switch n.Kind {
	case Rect:
		fmt.Fprintf(&b, " x=%g y=%g w=%g h=%g", n.X, n.Y, n.W, n.H)
	case Circle:
		fmt.Fprintf(&b, " cx=%g cy=%g r=%g", n.X, n.Y, n.R)
	case Line:
		fmt.Fprintf(&b, " x1=%g y1=%g x2=%g y2=%g", n.X, n.Y, n.X2, n.Y2)
	case Text:
		fmt.Fprintf(&b, " x=%g y=%g text=%q", n.X, n.Y, n.Text)
	case Arc:
		fmt.Fprintf(&b, " cx=%g cy=%g r=%g inner=%g start=%g sweep=%g", n.X, n.Y, n.R, n.Inner, n.Start, n.Sweep)
	case Path:
		fmt.Fprintf(&b, " d=%q", FormatCommands(n.Commands))
	}
	s := n.Style
	fmt.Fprintf(&b, " stroke=%s fill=%s sw=%g dash=%v font=%g anchor=%s", s.Stroke, s.Fill, s.StrokeWidth, s.Dash, s.FontSize, s.Anchor)
	return b.String()
}
