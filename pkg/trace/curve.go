package trace

import (
	"fmt"
	"strings"

	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CurveKind selects how tour points are joined.
type CurveKind int

const (
	CurvePoly   CurveKind = iota // straight segments, sharp corners
	CurveBezier                  // interpolating cubic with automatic handles
	CurveNURBS                   // uniform cubic B-spline clamped at the ends
)

func (k CurveKind) String() string {
	switch k {
	case CurveBezier:
		return "bezier"
	case CurveNURBS:
		return "nurbs"
	default:
		return "poly"
	}
}

// ParseCurveKind accepts "poly", "bezier" or "nurbs".
func ParseCurveKind(s string) (CurveKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poly", "polyline":
		return CurvePoly, nil
	case "", "bezier":
		return CurveBezier, nil
	case "nurbs":
		return CurveNURBS, nil
	}
	return CurvePoly, fmt.Errorf("trace: unknown curve kind %q", s)
}

// Cubic is one cubic Bezier segment.
type Cubic struct {
	P0, P1, P2, P3 v3.Vec
}

// Curve is the traced path: the tour points plus the way they are joined.
type Curve struct {
	Kind   CurveKind `json:"kind"`
	Points []v3.Vec  `json:"points"`
}

// Cubics returns the curve as cubic Bezier segments. Poly curves yield
// straight cubics with handles on the chord.
func (c *Curve) Cubics() []Cubic {
	pts := c.Points
	if len(pts) < 2 {
		return nil
	}
	switch c.Kind {
	case CurveBezier:
		return autoHandles(pts)
	case CurveNURBS:
		return bspline(pts)
	}
	out := make([]Cubic, 0, len(pts)-1)
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		d := b.Sub(a).DivScalar(3)
		out = append(out, Cubic{a, a.Add(d), b.Sub(d), b})
	}
	return out
}

// autoHandles places handles along the Catmull-Rom tangent of each point,
// one third of the way to its neighbours, so the curve passes through
// every point.
func autoHandles(pts []v3.Vec) []Cubic {
	n := len(pts)
	tan := make([]v3.Vec, n)
	for i := range pts {
		switch i {
		case 0:
			tan[i] = pts[1].Sub(pts[0])
		case n - 1:
			tan[i] = pts[n-1].Sub(pts[n-2])
		default:
			tan[i] = pts[i+1].Sub(pts[i-1]).MulScalar(0.5)
		}
	}
	out := make([]Cubic, 0, n-1)
	for i := 0; i+1 < n; i++ {
		out = append(out, Cubic{
			P0: pts[i],
			P1: pts[i].Add(tan[i].DivScalar(3)),
			P2: pts[i+1].Sub(tan[i+1].DivScalar(3)),
			P3: pts[i+1],
		})
	}
	return out
}

// bspline converts a uniform cubic B-spline with tripled end points into
// Bezier segments. The curve starts and ends on the first and last points
// and is pulled toward, not through, the inner ones.
func bspline(pts []v3.Vec) []Cubic {
	n := len(pts)
	q := make([]v3.Vec, 0, n+4)
	q = append(q, pts[0], pts[0])
	q = append(q, pts...)
	q = append(q, pts[n-1], pts[n-1])
	out := make([]Cubic, 0, len(q)-3)
	for i := 0; i+3 < len(q); i++ {
		q0, q1, q2, q3 := q[i], q[i+1], q[i+2], q[i+3]
		out = append(out, Cubic{
			P0: q0.Add(q1.MulScalar(4)).Add(q2).DivScalar(6),
			P1: q1.MulScalar(2).Add(q2).DivScalar(3),
			P2: q1.Add(q2.MulScalar(2)).DivScalar(3),
			P3: q1.Add(q2.MulScalar(4)).Add(q3).DivScalar(6),
		})
	}
	return out
}

// maxFlattenDepth bounds subdivision of a single cubic.
const maxFlattenDepth = 16

func distToLine(p, a, b v3.Vec) float64 {
	ab := b.Sub(a)
	l := ab.Length()
	if l == 0 {
		return p.Sub(a).Length()
	}
	return ab.Cross(p.Sub(a)).Length() / l
}

func lerp(a, b v3.Vec, t float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// flattenCubic appends points approximating c within tol, excluding P0.
func flattenCubic(c Cubic, tol float64, depth int, out []v3.Vec) []v3.Vec {
	if depth >= maxFlattenDepth || (distToLine(c.P1, c.P0, c.P3) <= tol && distToLine(c.P2, c.P0, c.P3) <= tol) {
		return append(out, c.P3)
	}
	m01 := lerp(c.P0, c.P1, 0.5)
	m12 := lerp(c.P1, c.P2, 0.5)
	m23 := lerp(c.P2, c.P3, 0.5)
	m012 := lerp(m01, m12, 0.5)
	m123 := lerp(m12, m23, 0.5)
	mid := lerp(m012, m123, 0.5)
	out = flattenCubic(Cubic{c.P0, m01, m012, mid}, tol, depth+1, out)
	return flattenCubic(Cubic{mid, m123, m23, c.P3}, tol, depth+1, out)
}

// Tessellate returns points along the curve within tol of it.
func (c *Curve) Tessellate(tol float64) []v3.Vec {
	if len(c.Points) < 2 {
		return append([]v3.Vec(nil), c.Points...)
	}
	if c.Kind == CurvePoly {
		return append([]v3.Vec(nil), c.Points...)
	}
	cubics := c.Cubics()
	out := []v3.Vec{cubics[0].P0}
	for _, cu := range cubics {
		out = flattenCubic(cu, tol, 0, out)
	}
	return out
}

// Mesh returns the tessellated curve as an open chain of edges.
func (c *Curve) Mesh(tol float64) *mesh.EdgeMesh {
	m := mesh.New()
	prev := -1
	for _, p := range c.Tessellate(tol) {
		i := m.AddVertex(p)
		if prev >= 0 {
			m.AddEdge(prev, i)
		}
		prev = i
	}
	m.Compact()
	return m
}
