package flatten

import (
	"testing"

	"github.com/chazu/vamp/pkg/camera"
	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestFlatten(t *testing.T) {
	cam, err := camera.LookAt(v3.Vec{Z: 10}, v3.Vec{}, v3.Vec{Y: 1})
	if err != nil {
		t.Fatal(err)
	}
	cam.ResX, cam.ResY = 1000, 500

	m := mesh.New()
	a := m.AddVertex(v3.Vec{})
	b := m.AddVertex(v3.Vec{X: 1, Y: 1, Z: -3})
	m.AddEdge(a, b)

	c := Flatten(m, cam, 2)
	if c.Width != 4 || c.Height != 2 {
		t.Fatalf("canvas = %vx%v, want 4x2", c.Width, c.Height)
	}
	if got := c.Mesh.Vertices[0]; got != (v3.Vec{X: 2, Y: 1}) {
		t.Errorf("centre maps to %v, want (2,1,0)", got)
	}
	for i, v := range c.Mesh.Vertices {
		if v.Z != 0 {
			t.Errorf("vertex %d has z = %v", i, v.Z)
		}
	}
	if c.Mesh.EdgeCount() != 1 {
		t.Errorf("edge count = %d, want 1", c.Mesh.EdgeCount())
	}
	if c.Origin != (v3.Vec{X: -2, Y: -1}) {
		t.Errorf("origin = %v", c.Origin)
	}
	if got := c.World().Vertices[0]; got != (v3.Vec{}) {
		t.Errorf("world centre = %v, want origin", got)
	}
	// The source mesh is untouched.
	if m.Vertices[1].Z != -3 {
		t.Error("input mesh was modified")
	}
}

func TestFlattenNil(t *testing.T) {
	cam := camera.FromEuler(v3.Vec{}, v3.Vec{})
	c := Flatten(nil, cam, 1)
	if !c.Mesh.IsEmpty() {
		t.Error("expected empty canvas")
	}
}
