// Package ingest turns per-object source geometry into world-space edge
// meshes: one per object, the combined scene mesh and the mesh of marked
// (and optionally creased) edges.
package ingest

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidGeometry is wrapped by every error caused by malformed source
// geometry.
var ErrInvalidGeometry = errors.New("invalid geometry")

// DefaultCreaseLimit is the crease threshold in degrees. Two faces meeting
// at an interior angle of at most this value form a crease.
const DefaultCreaseLimit = 160

// Params controls ingest.
type Params struct {
	// Creases adds edges sharper than CreaseLimit to the marked mesh.
	Creases     bool
	CreaseLimit float64
}

// DefaultParams returns crease detection off with the default limit.
func DefaultParams() Params {
	return Params{CreaseLimit: DefaultCreaseLimit}
}

// Object is one ingested object.
type Object struct {
	Name string
	Kind mesh.Kind
	Mesh *mesh.EdgeMesh
}

// Result is everything later stages need from the scene geometry.
type Result struct {
	Objects  []Object
	Combined *mesh.EdgeMesh
	Marked   *mesh.EdgeMesh
	// RawEdges counts edges before welding and before any subdivision.
	RawEdges int
}

// Cull returns the sources whose origin lies strictly within radius of
// center, in order.
func Cull(srcs []mesh.Source, center v3.Vec, radius float64) []mesh.Source {
	out := make([]mesh.Source, 0, len(srcs))
	for i := range srcs {
		if srcs[i].Origin().Sub(center).Length() < radius {
			out = append(out, srcs[i])
		}
	}
	return out
}

// Ingest converts srcs into world-space edge meshes. Any source with out of
// range indices or non-finite coordinates aborts with ErrInvalidGeometry.
func Ingest(srcs []mesh.Source, p Params) (*Result, error) {
	res := &Result{
		Objects:  make([]Object, 0, len(srcs)),
		Combined: mesh.New(),
		Marked:   mesh.New(),
	}
	combined := mesh.NewWelder(res.Combined, mesh.WeldEpsilon)
	marked := mesh.NewWelder(res.Marked, mesh.WeldEpsilon)

	for i := range srcs {
		src := &srcs[i]
		if err := check(src); err != nil {
			return nil, fmt.Errorf("ingest: object %q: %w", src.Name, err)
		}
		res.RawEdges += rawEdges(src)

		m, err := objectMesh(src)
		if err != nil {
			return nil, fmt.Errorf("ingest: object %q: %w", src.Name, err)
		}
		res.Objects = append(res.Objects, Object{Name: src.Name, Kind: src.Kind, Mesh: m})
		weldInto(combined, res.Combined, m)

		if src.Kind != mesh.KindSurface {
			continue
		}
		world := src.World()
		for _, e := range src.Marked {
			marked.AddEdge(world.MulPosition(src.Vertices[e[0]]), world.MulPosition(src.Vertices[e[1]]))
		}
		if p.Creases {
			for _, i := range Creased(m, p.CreaseLimit) {
				a, b := m.Segment(i)
				marked.AddEdge(a, b)
			}
		}
	}
	return res, nil
}

func check(src *mesh.Source) error {
	n := len(src.Vertices)
	for _, v := range src.Vertices {
		if !finite(v) {
			return fmt.Errorf("non-finite vertex %v: %w", v, ErrInvalidGeometry)
		}
	}
	for fi, f := range src.Faces {
		for _, i := range f {
			if i < 0 || i >= n {
				return fmt.Errorf("face %d index %d out of range: %w", fi, i, ErrInvalidGeometry)
			}
		}
	}
	for ei, e := range src.Marked {
		if e[0] < 0 || e[1] < 0 || e[0] >= n || e[1] >= n {
			return fmt.Errorf("marked edge %d out of range: %w", ei, ErrInvalidGeometry)
		}
	}
	for pi, pl := range src.Polylines {
		for _, v := range pl {
			if !finite(v) {
				return fmt.Errorf("polyline %d has non-finite point: %w", pi, ErrInvalidGeometry)
			}
		}
	}
	return nil
}

// rawEdges counts the edges the source contributes before welding. Face
// edges shared by two triangles are counted once.
func rawEdges(src *mesh.Source) int {
	seen := make(map[mesh.Edge]struct{})
	for _, f := range src.Faces {
		for k := 0; k < 3; k++ {
			e := mesh.Edge{f[k], f[(k+1)%3]}
			if e[0] != e[1] {
				seen[e.Key()] = struct{}{}
			}
		}
	}
	for _, e := range src.Marked {
		if e[0] != e[1] {
			seen[e.Key()] = struct{}{}
		}
	}
	n := len(seen)
	for _, pl := range src.Polylines {
		if len(pl) > 1 {
			n += len(pl) - 1
		}
	}
	return n
}

// objectMesh builds one object's world-space mesh. Surfaces contribute
// their triangles and triangle edges; curves and strokes contribute open
// polylines.
func objectMesh(src *mesh.Source) (*mesh.EdgeMesh, error) {
	world := src.World()
	m := mesh.New()
	w := mesh.NewWelder(m, mesh.WeldEpsilon)

	idx := make([]int, len(src.Vertices))
	for i, v := range src.Vertices {
		idx[i] = w.Add(world.MulPosition(v))
	}
	for _, f := range src.Faces {
		a, b, c := idx[f[0]], idx[f[1]], idx[f[2]]
		if a != b && b != c && a != c {
			m.AddFace(a, b, c)
		}
		m.AddEdge(a, b)
		m.AddEdge(b, c)
		m.AddEdge(c, a)
	}
	for _, e := range src.Marked {
		m.AddEdge(idx[e[0]], idx[e[1]])
	}
	for _, pl := range src.Polylines {
		prev := -1
		for _, p := range pl {
			i := w.Add(world.MulPosition(p))
			if prev >= 0 {
				m.AddEdge(prev, i)
			}
			prev = i
		}
	}
	m.Compact()
	if !m.Valid() {
		return nil, fmt.Errorf("transformed geometry: %w", ErrInvalidGeometry)
	}
	return m, nil
}

func weldInto(w *mesh.Welder, dst, src *mesh.EdgeMesh) {
	idx := make([]int, len(src.Vertices))
	for i, v := range src.Vertices {
		idx[i] = w.Add(v)
	}
	for _, e := range src.Edges {
		dst.AddEdge(idx[e[0]], idx[e[1]])
	}
	for _, f := range src.Faces {
		dst.AddFace(idx[f[0]], idx[f[1]], idx[f[2]])
	}
}

// Creased returns the indices of the edges of m that form creases. An edge
// shared by exactly two faces is uncreased when the angle between the face
// normals, rounded to a tenth of a degree, is below 180 - limit. Edges with
// any other number of faces are kept.
func Creased(m *mesh.EdgeMesh, limit float64) []int {
	faces := make(map[mesh.Edge][]int)
	for fi, f := range m.Faces {
		for k := 0; k < 3; k++ {
			e := mesh.Edge{f[k], f[(k+1)%3]}.Key()
			faces[e] = append(faces[e], fi)
		}
	}
	var out []int
	for i, e := range m.Edges {
		fs := faces[e.Key()]
		if len(fs) == 2 {
			angle := faceAngle(m.FaceNormal(fs[0]), m.FaceNormal(fs[1]))
			if math.Abs(angle) < 180-limit {
				continue
			}
		}
		out = append(out, i)
	}
	return out
}

// faceAngle returns the angle between two unit normals in degrees, rounded
// to one decimal.
func faceAngle(n1, n2 v3.Vec) float64 {
	d := math.Max(-1, math.Min(1, n1.Dot(n2)))
	deg := math.Acos(d) * 180 / math.Pi
	return math.Round(deg*10) / 10
}

func finite(v v3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
