package export

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// cubicSteps is the number of lines per cubic in DXF output, which has no
// Bezier entity.
const cubicSteps = 16

// WriteDXF writes d as DXF lines in canvas units.
func WriteDXF(path string, d *Drawing) error {
	dx := render.NewDXF(path)
	for _, pl := range d.Polylines {
		for i := 0; i+1 < len(pl); i++ {
			dx.Line(segment(pl[i], pl[i+1]))
		}
	}
	for _, run := range d.Curves {
		for _, c := range run {
			prev := c.P0
			for k := 1; k <= cubicSteps; k++ {
				p := c.At(float64(k) / cubicSteps)
				dx.Line(segment(prev, p))
				prev = p
			}
		}
	}
	return dx.Save()
}

func segment(a, b v2.Vec) *sdf.Line2 {
	return &sdf.Line2{a, b}
}
