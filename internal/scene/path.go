package scene

import (
	"strconv"
	"strings"
)

// Op is a path command
type Op byte

const (
	MoveTo Op = 'M'
	LineTo Op = 'L'
	QuadTo Op = 'Q'
	Close  Op = 'Z'
)

// Command is one path segment. CX, CY are the control point of a QuadTo.
type Command struct {
	Op     Op
	X, Y   float64
	CX, CY float64
}

// Point is a pixel coordinate
type Point struct {
	X, Y float64
}

// Polyline builds straight segments through the points. Each run of points
// starts with a MoveTo.
func Polyline(runs [][]Point) []Command {
	var out []Command
	for _, run := range runs {
		for i, p := range run {
			op := LineTo
			if i == 0 {
				op = MoveTo
			}
			out = append(out, Command{Op: op, X: p.X, Y: p.Y})
		}
	}
	return out
}

// Smooth builds a curve through each run, using every inner point as the
// control of a quadratic segment ending halfway to the next point.
func Smooth(runs [][]Point) []Command {
	var out []Command
	for _, run := range runs {
		if len(run) < 3 {
			out = append(out, Polyline([][]Point{run})...)
			continue
		}
		out = append(out, Command{Op: MoveTo, X: run[0].X, Y: run[0].Y})
		out = append(out, Command{Op: LineTo, X: mid(run[0].X, run[1].X), Y: mid(run[0].Y, run[1].Y)})
		for i := 1; i < len(run)-1; i++ {
			out = append(out, Command{
				Op: QuadTo,
				CX: run[i].X, CY: run[i].Y,
				X: mid(run[i].X, run[i+1].X), Y: mid(run[i].Y, run[i+1].Y),
			})
		}
		last := run[len(run)-1]
		out = append(out, Command{Op: LineTo, X: last.X, Y: last.Y})
	}
	return out
}

func mid(a, b float64) float64 {
	return (a + b) / 2
}

// FormatCommands renders commands in SVG path data syntax
func FormatCommands(cmds []Command) string {
	var b strings.Builder
	for i, c := range cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(byte(c.Op))
		switch c.Op {
		case Close:
		case QuadTo:
			b.WriteString(num(c.CX) + "," + num(c.CY) + " " + num(c.X) + "," + num(c.Y))
		default:
			b.WriteString(num(c.X) + "," + num(c.Y))
		}
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
