// Package mesh defines the edge mesh shared by every stage of the
// visibility pipeline, the per-object source geometry handed to ingest,
// and helpers for welding vertices and chaining edges into polylines.
package mesh

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Edge is a pair of vertex indices. Direction is kept as inserted but
// equality for deduplication is undirected.
type Edge [2]int

// Key returns the edge with its indices in ascending order.
func (e Edge) Key() Edge {
	if e[0] > e[1] {
		return Edge{e[1], e[0]}
	}
	return e
}

// Face is a triangle given by three vertex indices.
type Face [3]int

// EdgeMesh owns a list of vertices, a set of edges between them and an
// optional list of triangles. Triangles are only used as ray targets and
// for crease detection; line art is made of edges.
type EdgeMesh struct {
	Vertices []v3.Vec `json:"vertices"`
	Edges    []Edge   `json:"edges"`
	Faces    []Face   `json:"faces,omitempty"`

	edgeSet map[Edge]struct{}
}

// New returns an empty mesh.
func New() *EdgeMesh {
	return &EdgeMesh{}
}

// VertexCount returns the number of vertices.
func (m *EdgeMesh) VertexCount() int { return len(m.Vertices) }

// EdgeCount returns the number of edges.
func (m *EdgeMesh) EdgeCount() int { return len(m.Edges) }

// FaceCount returns the number of triangles.
func (m *EdgeMesh) FaceCount() int { return len(m.Faces) }

// IsEmpty reports whether the mesh has no edges and no faces.
func (m *EdgeMesh) IsEmpty() bool {
	return len(m.Edges) == 0 && len(m.Faces) == 0
}

// AddVertex appends p and returns its index.
func (m *EdgeMesh) AddVertex(p v3.Vec) int {
	m.Vertices = append(m.Vertices, p)
	return len(m.Vertices) - 1
}

func (m *EdgeMesh) index() map[Edge]struct{} {
	if m.edgeSet == nil || len(m.edgeSet) != len(m.Edges) {
		m.edgeSet = make(map[Edge]struct{}, len(m.Edges))
		for _, e := range m.Edges {
			m.edgeSet[e.Key()] = struct{}{}
		}
	}
	return m.edgeSet
}

// HasEdge reports whether an edge between a and b exists in either
// direction.
func (m *EdgeMesh) HasEdge(a, b int) bool {
	_, ok := m.index()[Edge{a, b}.Key()]
	return ok
}

// AddEdge adds the edge a-b. It refuses self loops, out of range indices,
// edges whose endpoints coincide and duplicates, and reports whether the
// edge was added.
func (m *EdgeMesh) AddEdge(a, b int) bool {
	if a == b || a < 0 || b < 0 || a >= len(m.Vertices) || b >= len(m.Vertices) {
		return false
	}
	if m.Vertices[a] == m.Vertices[b] {
		return false
	}
	set := m.index()
	k := Edge{a, b}.Key()
	if _, ok := set[k]; ok {
		return false
	}
	set[k] = struct{}{}
	m.Edges = append(m.Edges, Edge{a, b})
	return true
}

// SetEdges replaces the edge list wholesale. The caller is responsible for
// it being free of duplicates.
func (m *EdgeMesh) SetEdges(edges []Edge) {
	m.Edges = edges
	m.edgeSet = nil
}

// AddFace appends a triangle. Indices are not validated.
func (m *EdgeMesh) AddFace(a, b, c int) {
	m.Faces = append(m.Faces, Face{a, b, c})
}

// Segment returns the endpoints of edge i.
func (m *EdgeMesh) Segment(i int) (v3.Vec, v3.Vec) {
	e := m.Edges[i]
	return m.Vertices[e[0]], m.Vertices[e[1]]
}

// EdgeLength returns the length of edge i.
func (m *EdgeMesh) EdgeLength(i int) float64 {
	a, b := m.Segment(i)
	return b.Sub(a).Length()
}

// EdgeMidpoint returns the midpoint of edge i.
func (m *EdgeMesh) EdgeMidpoint(i int) v3.Vec {
	a, b := m.Segment(i)
	return a.Add(b).MulScalar(0.5)
}

// FaceCenter returns the centroid of triangle i.
func (m *EdgeMesh) FaceCenter(i int) v3.Vec {
	f := m.Faces[i]
	return m.Vertices[f[0]].Add(m.Vertices[f[1]]).Add(m.Vertices[f[2]]).DivScalar(3)
}

// FaceNormal returns the unit normal of triangle i following its winding.
// Degenerate triangles return the zero vector.
func (m *EdgeMesh) FaceNormal(i int) v3.Vec {
	f := m.Faces[i]
	a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return n.DivScalar(l)
}

// Bounds returns the axis aligned box around all vertices.
func (m *EdgeMesh) Bounds() sdf.Box3 {
	if len(m.Vertices) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		bb = bb.Include(v)
	}
	return bb
}

// Clone returns a deep copy.
func (m *EdgeMesh) Clone() *EdgeMesh {
	c := &EdgeMesh{
		Vertices: append([]v3.Vec(nil), m.Vertices...),
		Edges:    append([]Edge(nil), m.Edges...),
		Faces:    append([]Face(nil), m.Faces...),
	}
	return c
}

// Append copies the vertices, edges and faces of o into m, offsetting
// indices. Edges that duplicate existing ones by index are skipped.
func (m *EdgeMesh) Append(o *EdgeMesh) {
	if o == nil {
		return
	}
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, e := range o.Edges {
		m.AddEdge(e[0]+base, e[1]+base)
	}
	for _, f := range o.Faces {
		m.AddFace(f[0]+base, f[1]+base, f[2]+base)
	}
}

// Join returns a new mesh holding copies of all given meshes.
func Join(meshes ...*EdgeMesh) *EdgeMesh {
	out := New()
	for _, m := range meshes {
		out.Append(m)
	}
	return out
}

// Adjacency returns, per vertex, the indices of its edge neighbours in
// edge order.
func (m *EdgeMesh) Adjacency() [][]int {
	adj := make([][]int, len(m.Vertices))
	for _, e := range m.Edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	return adj
}

// Compact removes vertices not referenced by any edge or face and remaps
// indices, keeping the relative order of the survivors.
func (m *EdgeMesh) Compact() {
	used := make([]bool, len(m.Vertices))
	for _, e := range m.Edges {
		used[e[0]], used[e[1]] = true, true
	}
	for _, f := range m.Faces {
		used[f[0]], used[f[1]], used[f[2]] = true, true, true
	}
	remap := make([]int, len(m.Vertices))
	verts := m.Vertices[:0:0]
	for i, v := range m.Vertices {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(verts)
		verts = append(verts, v)
	}
	for i, e := range m.Edges {
		m.Edges[i] = Edge{remap[e[0]], remap[e[1]]}
	}
	for i, f := range m.Faces {
		m.Faces[i] = Face{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	m.Vertices = verts
	m.edgeSet = nil
}

// Valid reports whether every index is in range and every coordinate is
// finite.
func (m *EdgeMesh) Valid() bool {
	n := len(m.Vertices)
	for _, v := range m.Vertices {
		if !finite(v) {
			return false
		}
	}
	for _, e := range m.Edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= n || e[1] >= n {
			return false
		}
	}
	for _, f := range m.Faces {
		for _, i := range f {
			if i < 0 || i >= n {
				return false
			}
		}
	}
	return true
}

func finite(v v3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
