package kernel

import (
	"testing"

	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// --- Mesh helper method tests ---

func TestMeshCounts(t *testing.T) {
	tests := []struct {
		name      string
		m         *Mesh
		verts     int
		triangles int
		empty     bool
	}{
		{"empty", &Mesh{}, 0, 0, true},
		{"vertices only", &Mesh{Vertices: []v3.Vec{{}, {X: 1}}}, 2, 0, true},
		{"one triangle", &Mesh{Vertices: []v3.Vec{{}, {X: 1}, {Y: 1}}, Faces: []mesh.Face{{0, 1, 2}}}, 3, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.VertexCount(); got != tt.verts {
				t.Errorf("VertexCount() = %d, want %d", got, tt.verts)
			}
			if got := tt.m.TriangleCount(); got != tt.triangles {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.triangles)
			}
			if got := tt.m.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestFromTriangles(t *testing.T) {
	a, b, c, d := v3.Vec{}, v3.Vec{X: 1}, v3.Vec{X: 1, Y: 1}, v3.Vec{Y: 1}
	m := FromTriangles([][3]v3.Vec{
		{a, b, c},
		{a, c, d},
		{a, a, b}, // collapses
	})
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4 after welding", m.VertexCount())
	}
	if m.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
	if m.Faces[1] != (mesh.Face{0, 2, 3}) {
		t.Errorf("second face = %v, want shared corners", m.Faces[1])
	}

	m.Name = "quad"
	src := m.Source()
	if src.Name != "quad" || src.Kind != mesh.KindSurface || len(src.Faces) != 2 {
		t.Errorf("Source() = %+v", src)
	}
}
