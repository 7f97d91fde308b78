package export

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/graphics/color"
)

// WritePDF writes d as a single page PDF at opts.PointsPerUnit. Drawing
// happens in canvas units under a scaling CTM.
func WritePDF(path string, d *Drawing, opts Options) error {
	s := opts.PointsPerUnit
	paper := &pdf.Rectangle{URx: d.Width * s, URy: d.Height * s}

	page, err := document.CreateSinglePage(path, paper, pdf.V1_7, nil)
	if err != nil {
		return err
	}

	page.Transform(matrix.Scale(s, s))
	page.SetStrokeColor(color.DeviceGray(0))
	page.SetLineWidth(opts.LineWidth)
	for _, pl := range d.Polylines {
		for i, v := range pl {
			if i == 0 {
				page.MoveTo(v.X, v.Y)
			} else {
				page.LineTo(v.X, v.Y)
			}
		}
	}
	for _, run := range d.Curves {
		for i, c := range run {
			if i == 0 {
				page.MoveTo(c.P0.X, c.P0.Y)
			}
			page.CurveTo(c.P1.X, c.P1.Y, c.P2.X, c.P2.Y, c.P3.X, c.P3.Y)
		}
	}
	if !d.Empty() {
		page.Stroke()
	}
	return page.Close()
}
