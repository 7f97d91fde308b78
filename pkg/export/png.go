package export

import (
	"math"

	"github.com/gogpu/gg"
)

// WritePNG rasterises d on a white background at opts.PixelsPerUnit.
func WritePNG(path string, d *Drawing, opts Options) error {
	s := opts.PixelsPerUnit
	w := int(math.Max(1, math.Round(d.Width*s)))
	h := int(math.Max(1, math.Round(d.Height*s)))

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.White)
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(math.Max(1, opts.LineWidth*s))

	// Image rows grow downward.
	px := func(x, y float64) (float64, float64) {
		return x * s, float64(h) - y*s
	}
	for _, pl := range d.Polylines {
		for i, v := range pl {
			x, y := px(v.X, v.Y)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
	}
	for _, run := range d.Curves {
		for i, c := range run {
			if i == 0 {
				dc.MoveTo(px(c.P0.X, c.P0.Y))
			}
			x1, y1 := px(c.P1.X, c.P1.Y)
			x2, y2 := px(c.P2.X, c.P2.Y)
			x3, y3 := px(c.P3.X, c.P3.Y)
			dc.CubicTo(x1, y1, x2, y2, x3, y3)
		}
	}
	if !d.Empty() {
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return dc.SavePNG(path)
}
