// Package export writes flattened line art to plotter and document
// formats.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/vamp/pkg/flatten"
	"github.com/chazu/vamp/pkg/mesh"
	"github.com/chazu/vamp/pkg/trace"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Format is an output file format.
type Format int

const (
	FormatSVG Format = iota
	FormatPDF
	FormatPNG
	FormatDXF
	FormatGCode
	FormatJSON
)

var formatNames = map[Format]string{
	FormatSVG:   "svg",
	FormatPDF:   "pdf",
	FormatPNG:   "png",
	FormatDXF:   "dxf",
	FormatGCode: "gcode",
	FormatJSON:  "json",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + f.String() }

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	if key == "nc" || key == "ngc" {
		return FormatGCode, nil
	}
	for f, n := range formatNames {
		if n == key {
			return f, nil
		}
	}
	return FormatSVG, fmt.Errorf("export: unknown format %q", s)
}

// ParseFormats splits a comma separated list.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Options control physical output sizes. Canvas units are inches.
type Options struct {
	PointsPerUnit float64 // PDF
	PixelsPerUnit float64 // PNG
	// LineWidth is the stroke width in canvas units.
	LineWidth float64

	// G-code settings, in millimetres and millimetres per minute.
	MillimetresPerUnit float64
	Feed               float64
	PenUp              float64
	PenDown            float64
}

// DefaultOptions returns 72 points and 500 pixels per canvas unit, which
// restores the camera resolution in PNG output.
func DefaultOptions() Options {
	return Options{
		PointsPerUnit:      72,
		PixelsPerUnit:      500,
		LineWidth:          0.004,
		MillimetresPerUnit: 25.4,
		Feed:               1500,
		PenUp:              5,
		PenDown:            0,
	}
}

// Cubic is a 2D cubic Bezier segment.
type Cubic struct {
	P0, P1, P2, P3 v2.Vec
}

// Drawing is the 2D content of one output: straight polylines from an
// edge mesh and curves from a trace.
type Drawing struct {
	Width, Height float64
	Polylines     [][]v2.Vec
	// Curves are joined cubic runs, one per traced path.
	Curves [][]Cubic
}

// FromCanvas chains the canvas edges into polylines.
func FromCanvas(c *flatten.Canvas) *Drawing {
	if c == nil {
		return &Drawing{}
	}
	d := &Drawing{Width: c.Width, Height: c.Height}
	d.AddMesh(c.Mesh)
	return d
}

// AddMesh appends the edges of m, dropping z.
func (d *Drawing) AddMesh(m *mesh.EdgeMesh) {
	if m == nil {
		return
	}
	for _, chain := range mesh.Chains(m) {
		pl := make([]v2.Vec, len(chain))
		for i, vi := range chain {
			v := m.Vertices[vi]
			pl[i] = v2.Vec{X: v.X, Y: v.Y}
		}
		d.Polylines = append(d.Polylines, pl)
	}
}

// AddCurve appends a traced curve, dropping z. The curve should come from
// a flat trace source so it lies on the canvas.
func (d *Drawing) AddCurve(c *trace.Curve) {
	cubics := c.Cubics()
	if len(cubics) == 0 {
		return
	}
	run := make([]Cubic, len(cubics))
	for i, cu := range cubics {
		run[i] = Cubic{
			P0: v2.Vec{X: cu.P0.X, Y: cu.P0.Y},
			P1: v2.Vec{X: cu.P1.X, Y: cu.P1.Y},
			P2: v2.Vec{X: cu.P2.X, Y: cu.P2.Y},
			P3: v2.Vec{X: cu.P3.X, Y: cu.P3.Y},
		}
	}
	d.Curves = append(d.Curves, run)
}

// Empty reports whether there is nothing to draw.
func (d *Drawing) Empty() bool {
	return len(d.Polylines) == 0 && len(d.Curves) == 0
}

// Write saves d to dir/name with the extension of f. JSON output is not
// handled here; use WriteJSON with the value to dump.
func Write(dir, name string, f Format, d *Drawing, opts Options) (string, error) {
	path := filepath.Join(dir, name+f.Ext())
	var err error
	switch f {
	case FormatPDF:
		err = WritePDF(path, d, opts)
	case FormatPNG:
		err = WritePNG(path, d, opts)
	case FormatDXF:
		err = WriteDXF(path, d)
	case FormatSVG, FormatGCode:
		err = writeFile(path, func(file *os.File) error {
			if f == FormatSVG {
				return WriteSVG(file, d, opts)
			}
			return WriteGCode(file, d, opts)
		})
	default:
		return "", fmt.Errorf("export: %s is not a drawing format", f)
	}
	if err != nil {
		return "", fmt.Errorf("export: %s: %w", path, err)
	}
	return path, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
