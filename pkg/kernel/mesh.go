package kernel

import (
	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is an indexed triangle mesh in the solid's local coordinates.
type Mesh struct {
	Vertices []v3.Vec    `json:"vertices"`
	Faces    []mesh.Face `json:"faces"`
	Name     string      `json:"name"` // which scene object this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// FromTriangles builds an indexed mesh from a triangle soup, welding
// corners that coincide within mesh.WeldEpsilon. Triangles that collapse
// after welding are dropped.
func FromTriangles(tris [][3]v3.Vec) *Mesh {
	em := mesh.New()
	w := mesh.NewWelder(em, mesh.WeldEpsilon)
	faces := make([]mesh.Face, 0, len(tris))
	for _, t := range tris {
		a, b, c := w.Add(t[0]), w.Add(t[1]), w.Add(t[2])
		if a == b || b == c || a == c {
			continue
		}
		faces = append(faces, mesh.Face{a, b, c})
	}
	return &Mesh{Vertices: em.Vertices, Faces: faces}
}

// Source returns the mesh as ingest input with an identity transform.
func (m *Mesh) Source() mesh.Source {
	return mesh.Source{
		Name:     m.Name,
		Kind:     mesh.KindSurface,
		Vertices: m.Vertices,
		Faces:    m.Faces,
	}
}
