package bvh

import (
	"math/rand"
	"testing"

	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quad adds a unit square in the plane z, split into two triangles.
func quad(m *mesh.EdgeMesh, x, y, z float64) {
	a := m.AddVertex(v3.Vec{X: x, Y: y, Z: z})
	b := m.AddVertex(v3.Vec{X: x + 1, Y: y, Z: z})
	c := m.AddVertex(v3.Vec{X: x + 1, Y: y + 1, Z: z})
	d := m.AddVertex(v3.Vec{X: x, Y: y + 1, Z: z})
	m.AddFace(a, b, c)
	m.AddFace(a, c, d)
}

func TestFirstHit(t *testing.T) {
	m := mesh.New()
	quad(m, 0, 0, 0)
	quad(m, 0, 0, -3)
	tree := Build(m)
	require.Equal(t, 4, tree.Len())

	down := v3.Vec{Z: -1}
	tests := []struct {
		name    string
		origin  v3.Vec
		dir     v3.Vec
		max     float64
		wantHit bool
		want    float64
	}{
		{"nearest of two", v3.Vec{X: 0.3, Y: 0.6, Z: 5}, down, 100, true, 5},
		{"out of range", v3.Vec{X: 0.3, Y: 0.6, Z: 5}, down, 4, false, 0},
		{"exactly at range", v3.Vec{X: 0.3, Y: 0.6, Z: 5}, down, 5, true, 5},
		{"between planes", v3.Vec{X: 0.3, Y: 0.6, Z: -1}, down, 100, true, 2},
		{"pointing away", v3.Vec{X: 0.3, Y: 0.6, Z: 5}, v3.Vec{Z: 1}, 100, false, 0},
		{"miss beside", v3.Vec{X: 2, Y: 0.5, Z: 5}, down, 100, false, 0},
		{"on shared diagonal", v3.Vec{X: 0.5, Y: 0.5, Z: 5}, down, 100, true, 5},
		{"parallel in plane", v3.Vec{X: -1, Y: 0.5, Z: 0}, v3.Vec{X: 1}, 100, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := tree.FirstHit(tt.origin, tt.dir, tt.max)
			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				assert.InDelta(t, tt.want, d, 1e-9)
			}
		})
	}
}

func TestEmptyTree(t *testing.T) {
	tree := Build(mesh.New())
	_, ok := tree.FirstHit(v3.Vec{}, v3.Vec{Z: 1}, 10)
	assert.False(t, ok)
	assert.Equal(t, 0, Build(nil).Len())
}

func TestDegenerateFacesSkipped(t *testing.T) {
	m := mesh.New()
	a := m.AddVertex(v3.Vec{})
	b := m.AddVertex(v3.Vec{X: 1})
	c := m.AddVertex(v3.Vec{X: 2})
	m.AddFace(a, b, c)
	assert.Equal(t, 0, Build(m).Len())
}

// TestMatchesBruteForce checks the hierarchy against a linear scan over a
// grid of quads large enough to force interior nodes.
func TestMatchesBruteForce(t *testing.T) {
	m := mesh.New()
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			quad(m, float64(i)*1.5, float64(j)*1.5, -float64((i*7+j*3)%5))
		}
	}
	tree := Build(m)
	require.Greater(t, len(tree.nodes), 1)

	rnd := rand.New(rand.NewSource(1))
	for k := 0; k < 500; k++ {
		o := v3.Vec{X: rnd.Float64() * 12, Y: rnd.Float64() * 12, Z: 10}
		d := v3.Vec{X: rnd.Float64() - 0.5, Y: rnd.Float64() - 0.5, Z: -1}.Normalize()

		want, wantOK := 0.0, false
		for i := range tree.tris {
			if dist, ok := intersect(&tree.tris[i], o, d); ok && dist <= 100 && (!wantOK || dist < want) {
				want, wantOK = dist, true
			}
		}
		got, ok := tree.FirstHit(o, d, 100)
		require.Equal(t, wantOK, ok, "ray %d", k)
		if ok {
			assert.InDelta(t, want, got, 1e-9)
		}
	}
}
