package occlusion

import (
	"testing"

	"github.com/chazu/vamp/pkg/bvh"
	"github.com/chazu/vamp/pkg/camera"
	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wall(z float64) *mesh.EdgeMesh {
	m := mesh.New()
	a := m.AddVertex(v3.Vec{X: -1, Y: -1, Z: z})
	b := m.AddVertex(v3.Vec{X: 1, Y: -1, Z: z})
	c := m.AddVertex(v3.Vec{X: 1, Y: 1, Z: z})
	d := m.AddVertex(v3.Vec{X: -1, Y: 1, Z: z})
	m.AddFace(a, b, c)
	m.AddFace(a, c, d)
	return m
}

func newCamera(t *testing.T) *camera.Camera {
	t.Helper()
	c, err := camera.LookAt(v3.Vec{Z: 10}, v3.Vec{}, v3.Vec{Y: 1})
	require.NoError(t, err)
	return c
}

func TestParseCrop(t *testing.T) {
	tests := []struct {
		in      string
		want    Crop
		wantErr bool
	}{
		{"", CropNone, false},
		{"None", CropNone, false},
		{"front", CropFront, false},
		{"FRAME", CropFrame, false},
		{"sideways", CropNone, true},
	}
	for _, tt := range tests {
		got, err := ParseCrop(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, got, must(ParseCrop(got.String())))
	}
}

func must(c Crop, err error) Crop {
	if err != nil {
		panic(err)
	}
	return c
}

func TestOccludedBehindWall(t *testing.T) {
	cam := newCamera(t)
	tester := New(bvh.Build(wall(0)), cam, DefaultParams())

	assert.True(t, tester.IsOccluded(v3.Vec{Z: -2}, cam.Position))
	assert.False(t, tester.IsOccluded(v3.Vec{Z: 2}, cam.Position))
	assert.False(t, tester.IsOccluded(v3.Vec{X: 5, Z: -2}, cam.Position))

	// A point on the wall itself is not hidden by the wall.
	assert.True(t, tester.Visible(v3.Vec{X: 0.5, Y: 0.5}))
	assert.False(t, tester.Silhouette(v3.Vec{X: 0.5, Y: 0.5, Z: 1}))
	assert.True(t, tester.Silhouette(v3.Vec{X: 0.5, Y: 0.5}))
}

func TestMaxDistance(t *testing.T) {
	cam := newCamera(t)
	p := DefaultParams()
	p.MaxDistance = 1
	tester := New(bvh.Build(wall(0)), cam, p)
	assert.False(t, tester.IsOccluded(v3.Vec{Z: -2}, cam.Position), "wall is beyond the capped ray")

	// The capped length is measured from the offset start: 1.9 from
	// z=-1.76 reaches z=0.14, past the wall.
	p.MaxDistance = 1.9
	tester = New(bvh.Build(wall(0)), cam, p)
	assert.True(t, tester.IsOccluded(v3.Vec{Z: -2}, cam.Position))

	p.MaxDistance = 1.7
	tester = New(bvh.Build(wall(0)), cam, p)
	assert.False(t, tester.IsOccluded(v3.Vec{Z: -2}, cam.Position), "ray ends at z=-0.06")
}

func TestReversalAgrees(t *testing.T) {
	cam := newCamera(t)
	tester := New(bvh.Build(wall(0)), cam, DefaultParams())
	pairs := [][2]v3.Vec{
		{{Z: -3}, {Z: 3}},
		{{X: 0.2, Y: -0.4, Z: -1}, {X: -0.3, Y: 0.1, Z: 4}},
		{{X: 3, Z: -3}, {X: 3, Z: 3}},
		{{X: -5, Y: 0.5, Z: -1}, {X: 5, Y: 0.5, Z: 1}},
	}
	for _, p := range pairs {
		assert.Equal(t, tester.Hit(p[0], p[1]), tester.Hit(p[1], p[0]), "%v", p)
	}
}

func TestCropPolicies(t *testing.T) {
	cam := newCamera(t)
	empty := bvh.Build(mesh.New())

	inFrame := v3.Vec{}
	outOfFrame := v3.Vec{X: 100}
	behind := v3.Vec{Z: 20}
	onPlane := v3.Vec{Z: 9.995}

	tests := []struct {
		crop Crop
		p    v3.Vec
		want bool
	}{
		{CropNone, behind, false},
		{CropNone, outOfFrame, false},
		{CropFront, inFrame, false},
		{CropFront, outOfFrame, false},
		{CropFront, behind, true},
		{CropFront, onPlane, true},
		{CropFrame, inFrame, false},
		{CropFrame, outOfFrame, true},
		{CropFrame, behind, true},
	}
	for _, tt := range tests {
		t.Run(tt.crop.String(), func(t *testing.T) {
			p := DefaultParams()
			p.Crop = tt.crop
			tester := New(empty, cam, p)
			assert.Equal(t, tt.want, tester.IsOccluded(tt.p, cam.Position), "%v", tt.p)
		})
	}
}
