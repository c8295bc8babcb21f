package charts

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"tsdash/internal/scene"
)

// Format is an export format for a rendered frame
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat resolves a format name or file extension
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(name), ".") {
	case "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	default:
		return "", fmt.Errorf("unsupported frame format %q", name)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

// Painter draws a scene through a go-chart renderer
type Painter struct {
	Background drawing.Color
}

// NewPainter creates a painter with a white background
func NewPainter() *Painter {
	return &Painter{Background: drawing.ColorWhite}
}

// Paint renders the scene in the given format and writes it to w
func (p *Painter) Paint(w io.Writer, s *scene.Scene, format Format) error {
	width, height := int(math.Round(s.Width)), int(math.Round(s.Height))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("cannot paint a %dx%d scene", width, height)
	}

	r, err := format.provider()(width, height)
	if err != nil {
		return fmt.Errorf("failed to create %s renderer: %w", format, err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}

	r.SetFont(font)
	r.SetFillColor(p.Background)
	rectPath(r, 0, 0, float64(width), float64(height))
	r.Fill()

	pc := &paintContext{r: r, background: p.Background}
	pc.node(s.Root, 1)

	if err := r.Save(w); err != nil {
		return fmt.Errorf("failed to write %s frame: %w", format, err)
	}
	return nil
}

type paintContext struct {
	r          chart.Renderer
	background drawing.Color
}

// node paints n and its children. Opacity multiplies down the tree; a
// transparent subtree is skipped.
func (pc *paintContext) node(n *scene.Node, opacity float64) {
	opacity *= n.Opacity
	if opacity <= 0 {
		return
	}

	pc.r.ResetStyle()
	switch n.Kind {
	case scene.Group:
		for _, c := range n.Children() {
			pc.node(c, opacity)
		}
		return
	case scene.Rect:
		pc.apply(n.Style, opacity)
		rectPath(pc.r, n.X, n.Y, n.W, n.H)
		pc.paint(n.Style)
	case scene.Line:
		pc.apply(n.Style, opacity)
		pc.r.MoveTo(px(n.X), px(n.Y))
		pc.r.LineTo(px(n.X2), px(n.Y2))
		pc.r.Stroke()
	case scene.Circle:
		pc.apply(n.Style, opacity)
		pc.r.Circle(n.R, px(n.X), px(n.Y))
		pc.paint(n.Style)
	case scene.Path:
		if len(n.Commands) == 0 {
			return
		}
		pc.apply(n.Style, opacity)
		pathCommands(pc.r, n.Commands)
		pc.paint(n.Style)
	case scene.Arc:
		pc.arc(n, opacity)
	case scene.Text:
		pc.text(n, opacity)
	}
}

func (pc *paintContext) arc(n *scene.Node, opacity float64) {
	if n.Sweep == 0 || n.R <= 0 {
		return
	}
	pc.apply(n.Style, opacity)
	cx, cy := px(n.X), px(n.Y)
	pc.r.MoveTo(cx, cy)
	pc.r.ArcTo(cx, cy, n.R, n.R, n.Start, n.Sweep)
	pc.r.LineTo(cx, cy)
	pc.r.Close()
	pc.paint(n.Style)

	if n.Inner > 0 {
		pc.r.ResetStyle()
		pc.r.SetFillColor(pc.background)
		pc.r.Circle(n.Inner, cx, cy)
		pc.r.Fill()
	}
}

func (pc *paintContext) text(n *scene.Node, opacity float64) {
	if n.Text == "" {
		return
	}
	size := n.Style.FontSize
	if size <= 0 {
		size = 10
	}
	color := parseColor(n.Style.Fill, opacity)

	pc.r.SetFontSize(size)
	pc.r.SetFontColor(color)

	x := px(n.X)
	switch n.Style.Anchor {
	case scene.AnchorMiddle:
		x -= pc.r.MeasureText(n.Text).Width() / 2
	case scene.AnchorEnd:
		x -= pc.r.MeasureText(n.Text).Width()
	}
	pc.r.Text(n.Text, x, px(n.Y))
}

func (pc *paintContext) apply(st scene.Style, opacity float64) {
	if st.Stroke != "" {
		pc.r.SetStrokeColor(parseColor(st.Stroke, opacity))
		width := st.StrokeWidth
		if width <= 0 {
			width = 1
		}
		pc.r.SetStrokeWidth(width)
	}
	if st.Fill != "" {
		pc.r.SetFillColor(parseColor(st.Fill, opacity))
	}
	if len(st.Dash) > 0 {
		pc.r.SetStrokeDashArray(st.Dash)
	}
}

func (pc *paintContext) paint(st scene.Style) {
	switch {
	case st.Stroke != "" && st.Fill != "":
		pc.r.FillStroke()
	case st.Fill != "":
		pc.r.Fill()
	case st.Stroke != "":
		pc.r.Stroke()
	}
}

func rectPath(r chart.Renderer, x, y, w, h float64) {
	r.MoveTo(px(x), px(y))
	r.LineTo(px(x+w), px(y))
	r.LineTo(px(x+w), px(y+h))
	r.LineTo(px(x), px(y+h))
	r.Close()
}

func pathCommands(r chart.Renderer, cmds []scene.Command) {
	for _, c := range cmds {
		switch c.Op {
		case scene.MoveTo:
			r.MoveTo(px(c.X), px(c.Y))
		case scene.LineTo:
			r.LineTo(px(c.X), px(c.Y))
		case scene.QuadTo:
			r.QuadCurveTo(px(c.CX), px(c.CY), px(c.X), px(c.Y))
		case scene.Close:
			r.Close()
		}
	}
}

func px(v float64) int {
	return int(math.Round(v))
}

// parseColor turns a "#rrggbb" or "#rgb" token into a drawing color scaled by
// opacity. Unparseable tokens paint black.
func parseColor(token string, opacity float64) drawing.Color {
	hex := strings.TrimPrefix(strings.TrimSpace(token), "#")
	c := drawing.ColorBlack
	if len(hex) == 3 || len(hex) == 6 {
		c = drawing.ColorFromHex(hex)
	}
	if opacity < 1 {
		c = c.WithAlpha(uint8(math.Round(255 * math.Max(0, opacity))))
	}
	return c
}
