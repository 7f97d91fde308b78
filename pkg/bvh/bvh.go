// Package bvh provides a static bounding volume hierarchy over the
// triangles of a mask mesh, answering first-hit ray queries for the
// occlusion tester.
package bvh

import (
	"math"
	"sort"

	"github.com/chazu/vamp/pkg/mesh"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// leafSize is the largest number of triangles kept in one leaf.
const leafSize = 4

// parallelEpsilon rejects rays lying in a triangle's plane.
const parallelEpsilon = 1e-14

type triangle struct {
	a, b, c v3.Vec
	bounds  sdf.Box3
	center  v3.Vec
}

// node is a flattened tree node. Leaves have left == -1 and cover
// tris[first:first+count].
type node struct {
	bounds       sdf.Box3
	left, right  int
	first, count int
}

// Tree is immutable once built and safe for concurrent queries.
type Tree struct {
	nodes []node
	tris  []triangle
}

// Build constructs the hierarchy over every non-degenerate triangle of m.
// Geometry is used as is, without fattening.
func Build(m *mesh.EdgeMesh) *Tree {
	t := &Tree{}
	if m == nil {
		return t
	}
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		if b.Sub(a).Cross(c.Sub(a)).Length() == 0 {
			continue
		}
		bb := sdf.Box3{Min: a, Max: a}.Include(b).Include(c)
		t.tris = append(t.tris, triangle{
			a: a, b: b, c: c,
			bounds: bb,
			center: a.Add(b).Add(c).DivScalar(3),
		})
	}
	if len(t.tris) > 0 {
		t.nodes = make([]node, 0, 2*len(t.tris)/leafSize+1)
		t.build(0, len(t.tris))
	}
	return t
}

func axisOf(v v3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

func (t *Tree) build(lo, hi int) int {
	bb := t.tris[lo].bounds
	cb := sdf.Box3{Min: t.tris[lo].center, Max: t.tris[lo].center}
	for _, tri := range t.tris[lo+1 : hi] {
		bb = bb.Extend(tri.bounds)
		cb = cb.Include(tri.center)
	}

	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{bounds: bb, left: -1, right: -1, first: lo, count: hi - lo})
	if hi-lo <= leafSize {
		return idx
	}

	size := cb.Size()
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	if size.Z > axisOf(size, axis) {
		axis = 2
	}
	if axisOf(size, axis) == 0 {
		return idx
	}

	part := t.tris[lo:hi]
	sort.SliceStable(part, func(i, j int) bool {
		return axisOf(part[i].center, axis) < axisOf(part[j].center, axis)
	})
	mid := (lo + hi) / 2
	left := t.build(lo, mid)
	right := t.build(mid, hi)
	t.nodes[idx].left, t.nodes[idx].right = left, right
	t.nodes[idx].count = 0
	return idx
}

// Len returns the number of indexed triangles.
func (t *Tree) Len() int { return len(t.tris) }

// Bounds returns the box around all indexed triangles.
func (t *Tree) Bounds() sdf.Box3 {
	if len(t.nodes) == 0 {
		return sdf.Box3{}
	}
	return t.nodes[0].bounds
}

// FirstHit returns the distance to the nearest triangle hit by the ray
// from origin along the unit vector dir within (0, maxDist].
func (t *Tree) FirstHit(origin, dir v3.Vec, maxDist float64) (float64, bool) {
	if len(t.nodes) == 0 || maxDist <= 0 {
		return 0, false
	}
	best := maxDist
	hit := false
	stack := make([]int, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		n := &t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !slab(n.bounds, origin, dir, best) {
			continue
		}
		if n.left < 0 {
			for i := n.first; i < n.first+n.count; i++ {
				if d, ok := intersect(&t.tris[i], origin, dir); ok && d <= best {
					best, hit = d, true
				}
			}
			continue
		}
		stack = append(stack, n.left, n.right)
	}
	return best, hit
}

// slab reports whether the ray segment [0, tMax] touches the box.
func slab(bb sdf.Box3, o, d v3.Vec, tMax float64) bool {
	tMin := 0.0
	for axis := 0; axis < 3; axis++ {
		oc, dc := axisOf(o, axis), axisOf(d, axis)
		lo, hi := axisOf(bb.Min, axis), axisOf(bb.Max, axis)
		if dc == 0 {
			if oc < lo || oc > hi {
				return false
			}
			continue
		}
		t1, t2 := (lo-oc)/dc, (hi-oc)/dc
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}

// intersect is the Möller-Trumbore test. Edges and corners count as hits.
func intersect(tri *triangle, o, d v3.Vec) (float64, bool) {
	e1 := tri.b.Sub(tri.a)
	e2 := tri.c.Sub(tri.a)
	p := d.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < parallelEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := o.Sub(tri.a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := e2.Dot(q) * inv
	if dist <= 0 {
		return 0, false
	}
	return dist, true
}
