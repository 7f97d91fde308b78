package mesh

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() *EdgeMesh {
	m := New()
	a := m.AddVertex(v3.Vec{X: 0, Y: 0})
	b := m.AddVertex(v3.Vec{X: 1, Y: 0})
	c := m.AddVertex(v3.Vec{X: 1, Y: 1})
	d := m.AddVertex(v3.Vec{X: 0, Y: 1})
	m.AddEdge(a, b)
	m.AddEdge(b, c)
	m.AddEdge(c, d)
	m.AddEdge(d, a)
	return m
}

func TestAddEdgeRejects(t *testing.T) {
	m := New()
	a := m.AddVertex(v3.Vec{X: 0})
	b := m.AddVertex(v3.Vec{X: 1})
	c := m.AddVertex(v3.Vec{X: 1})

	assert.True(t, m.AddEdge(a, b))
	assert.False(t, m.AddEdge(b, a), "reverse duplicate")
	assert.False(t, m.AddEdge(a, a), "self loop")
	assert.False(t, m.AddEdge(b, c), "coincident endpoints")
	assert.False(t, m.AddEdge(a, 7), "out of range")
	assert.Equal(t, 1, m.EdgeCount())
	assert.True(t, m.HasEdge(b, a))
}

func TestJoinOffsetsIndices(t *testing.T) {
	j := Join(square(), square())
	require.Equal(t, 8, j.VertexCount())
	require.Equal(t, 8, j.EdgeCount())
	assert.Equal(t, Edge{4, 5}, j.Edges[4])
	assert.True(t, j.Valid())
}

func TestCompact(t *testing.T) {
	m := square()
	m.AddVertex(v3.Vec{X: 5, Y: 5})
	m.SetEdges(m.Edges[:2])
	m.Compact()
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, []Edge{{0, 1}, {1, 2}}, m.Edges)
}

func TestEdgeHelpers(t *testing.T) {
	m := square()
	assert.InDelta(t, 1.0, m.EdgeLength(0), 1e-12)
	assert.Equal(t, v3.Vec{X: 0.5}, m.EdgeMidpoint(0))

	m.AddFace(0, 1, 2)
	assert.Equal(t, v3.Vec{Z: 1}, m.FaceNormal(0))
	c := m.FaceCenter(0)
	assert.InDelta(t, 2.0/3, c.X, 1e-12)
	assert.InDelta(t, 1.0/3, c.Y, 1e-12)

	bb := m.Bounds()
	assert.Equal(t, v3.Vec{X: 1, Y: 1}, bb.Max)
}

func TestWelderTolerance(t *testing.T) {
	m := New()
	w := NewWelder(m, 0.01)
	a := w.Add(v3.Vec{X: 1})
	b := w.Add(v3.Vec{X: 1.005})
	c := w.Add(v3.Vec{X: 1.02})
	d := w.Add(v3.Vec{X: 0.9999, Y: 0.0001})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, d, "neighbouring cell must still be searched")
	assert.Equal(t, 2, m.VertexCount())
}

func TestWelderFarCoordinates(t *testing.T) {
	m := New()
	w := NewWelder(m, WeldEpsilon)

	assert.Equal(t, cellKey{maxCell, 0, -maxCell}, w.key(v3.Vec{X: 1e12, Z: -1e12}))
	assert.Equal(t, cellKey{maxCell, -maxCell, 0}, w.key(v3.Vec{X: math.Inf(1), Y: math.Inf(-1), Z: math.NaN()}))

	a := w.Add(v3.Vec{X: 1e12, Y: 5})
	b := w.Add(v3.Vec{X: 1e12, Y: 5})
	c := w.Add(v3.Vec{X: 1e12, Y: 6})
	d := w.Add(v3.Vec{X: -1e12, Y: 5})
	e := w.Add(v3.Vec{X: 3e15, Y: 5})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.NotEqual(t, a, e)
	assert.Equal(t, 4, m.VertexCount())

	f, ok := w.Find(v3.Vec{X: 3e15, Y: 5})
	assert.True(t, ok)
	assert.Equal(t, e, f)
}

func TestWelderExact(t *testing.T) {
	m := New()
	w := NewWelder(m, 0)
	a := w.Add(v3.Vec{X: 0.1})
	b := w.Add(v3.Vec{X: 0.1})
	c := w.Add(v3.Vec{X: 0.1 + 1e-15})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestWelderSeesExistingVertices(t *testing.T) {
	m := square()
	w := NewWelder(m, WeldEpsilon)
	assert.Equal(t, 2, w.Add(v3.Vec{X: 1, Y: 1}))
	assert.False(t, w.AddEdge(v3.Vec{X: 0, Y: 0}, v3.Vec{X: 1, Y: 0}))
	assert.True(t, w.AddEdge(v3.Vec{X: 0, Y: 0}, v3.Vec{X: 1, Y: 1}))
}

func TestChains(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *EdgeMesh
		wantCount int
	}{
		{"closed square", square, 1},
		{"open polyline", func() *EdgeMesh {
			m := New()
			w := NewWelder(m, 0)
			w.AddEdge(v3.Vec{X: 0}, v3.Vec{X: 1})
			w.AddEdge(v3.Vec{X: 1}, v3.Vec{X: 2})
			w.AddEdge(v3.Vec{X: 2}, v3.Vec{X: 3})
			return m
		}, 1},
		{"star", func() *EdgeMesh {
			m := New()
			w := NewWelder(m, 0)
			w.AddEdge(v3.Vec{}, v3.Vec{X: 1})
			w.AddEdge(v3.Vec{}, v3.Vec{Y: 1})
			w.AddEdge(v3.Vec{}, v3.Vec{Z: 1})
			return m
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.build()
			chains := Chains(m)
			assert.Len(t, chains, tt.wantCount)

			seen := 0
			for _, c := range chains {
				seen += len(c) - 1
			}
			assert.Equal(t, m.EdgeCount(), seen, "every edge drawn once")
		})
	}
}

func TestSourceWorld(t *testing.T) {
	s := &Source{}
	assert.Equal(t, sdf.Identity3d(), s.World())

	s.Transform = sdf.Translate3d(v3.Vec{X: 2, Y: 3, Z: 4})
	assert.Equal(t, v3.Vec{X: 2, Y: 3, Z: 4}, s.Origin())
}
