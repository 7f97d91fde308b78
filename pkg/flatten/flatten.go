// Package flatten reprojects 3D line art onto a 2D canvas sized from the
// camera's render resolution.
package flatten

import (
	"github.com/chazu/vamp/pkg/camera"
	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Canvas is a flattened edge mesh. Vertices have z = 0 and span
// [0, Width] x [0, Height] when inside the camera frame. Origin is where
// the canvas sits in world space, centring it on the world origin.
type Canvas struct {
	Mesh   *mesh.EdgeMesh `json:"mesh"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Origin v3.Vec         `json:"origin"`
}

// Flatten projects every vertex of m through cam and scales the
// normalized coordinates by resolution/500*scale. Edges keep their
// indices; no visibility logic is applied.
func Flatten(m *mesh.EdgeMesh, cam *camera.Camera, scale float64) *Canvas {
	w, h := cam.Scale(scale)
	c := &Canvas{
		Mesh:   mesh.New(),
		Width:  w,
		Height: h,
		Origin: v3.Vec{X: -0.5 * w, Y: -0.5 * h},
	}
	if m == nil {
		return c
	}
	c.Mesh.Vertices = make([]v3.Vec, len(m.Vertices))
	for i, v := range m.Vertices {
		p := cam.View(v)
		c.Mesh.Vertices[i] = v3.Vec{X: p.X * w, Y: p.Y * h}
	}
	c.Mesh.SetEdges(append([]mesh.Edge(nil), m.Edges...))
	return c
}

// World returns the canvas mesh moved to its world position.
func (c *Canvas) World() *mesh.EdgeMesh {
	out := c.Mesh.Clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = v.Add(c.Origin)
	}
	return out
}
