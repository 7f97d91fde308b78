package export

import (
	"bufio"
	"fmt"
	"io"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// At evaluates the cubic at t in [0, 1].
func (c Cubic) At(t float64) v2.Vec {
	u := 1 - t
	a := c.P0.MulScalar(u * u * u)
	b := c.P1.MulScalar(3 * u * u * t)
	cc := c.P2.MulScalar(3 * u * t * t)
	d := c.P3.MulScalar(t * t * t)
	return a.Add(b).Add(cc).Add(d)
}

// WriteGCode writes d as pen plotter G-code: absolute millimetres, Z moves
// lift and lower the pen, rapid moves travel with the pen up and feed moves
// draw. Curves are split into cubicSteps lines each.
func WriteGCode(w io.Writer, d *Drawing, opts Options) error {
	bw := bufio.NewWriter(w)
	s := opts.MillimetresPerUnit

	fmt.Fprintf(bw, "; vamp line art %.3f x %.3f mm\n", d.Width*s, d.Height*s)
	fmt.Fprintln(bw, "G21")
	fmt.Fprintln(bw, "G90")
	fmt.Fprintf(bw, "G0 Z%.3f\n", opts.PenUp)

	stroke := func(pts []v2.Vec) {
		if len(pts) < 2 {
			return
		}
		fmt.Fprintf(bw, "G0 X%.3f Y%.3f\n", pts[0].X*s, pts[0].Y*s)
		fmt.Fprintf(bw, "G1 Z%.3f F%.0f\n", opts.PenDown, opts.Feed)
		for _, p := range pts[1:] {
			fmt.Fprintf(bw, "G1 X%.3f Y%.3f F%.0f\n", p.X*s, p.Y*s, opts.Feed)
		}
		fmt.Fprintf(bw, "G0 Z%.3f\n", opts.PenUp)
	}
	for _, pl := range d.Polylines {
		stroke(pl)
	}
	for _, run := range d.Curves {
		var pts []v2.Vec
		for i, c := range run {
			if i == 0 {
				pts = append(pts, c.P0)
			}
			for k := 1; k <= cubicSteps; k++ {
				pts = append(pts, c.At(float64(k)/cubicSteps))
			}
		}
		stroke(pts)
	}

	fmt.Fprintln(bw, "G0 X0 Y0")
	fmt.Fprintln(bw, "M2")
	return bw.Flush()
}
