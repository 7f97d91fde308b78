package export

import (
	"fmt"
	"io"

	"honnef.co/go/curve"
)

// Path returns the drawing as one Bezier path in canvas units with y up.
func (d *Drawing) Path() curve.BezPath {
	var p curve.BezPath
	for _, pl := range d.Polylines {
		for i, v := range pl {
			pt := curve.Point{X: v.X, Y: v.Y}
			if i == 0 {
				p.MoveTo(pt)
			} else {
				p.LineTo(pt)
			}
		}
	}
	for _, run := range d.Curves {
		for i, c := range run {
			if i == 0 {
				p.MoveTo(curve.Point{X: c.P0.X, Y: c.P0.Y})
			}
			p.CubicTo(
				curve.Point{X: c.P1.X, Y: c.P1.Y},
				curve.Point{X: c.P2.X, Y: c.P2.Y},
				curve.Point{X: c.P3.X, Y: c.P3.Y},
			)
		}
	}
	return p
}

// WriteSVG writes d as an SVG document sized in inches. The y axis is
// flipped so the canvas origin sits at the bottom left.
func WriteSVG(w io.Writer, d *Drawing, opts Options) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%gin" height="%gin" viewBox="0 0 %g %g">`+"\n"+
			`<g transform="matrix(1 0 0 -1 0 %g)" fill="none" stroke="black" stroke-width="%g" stroke-linecap="round" stroke-linejoin="round">`+"\n"+
			`<path d="`,
		d.Width, d.Height, d.Width, d.Height, d.Height, opts.LineWidth)
	if err != nil {
		return err
	}
	if err := d.Path().WriteSVG(w, curve.SVGOptions{}); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\"/>\n</g>\n</svg>\n")
	return err
}
