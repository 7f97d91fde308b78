// Package camera maps world points to normalized camera view coordinates.
package camera

import (
	"errors"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Projection selects perspective or orthographic projection.
type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

func (p Projection) String() string {
	if p == Orthographic {
		return "orthographic"
	}
	return "perspective"
}

// Default lens values.
const (
	DefaultFOV        = 39.6 // degrees, a 50mm lens on a 36mm sensor
	DefaultOrthoScale = 7.0
	DefaultResX       = 1920
	DefaultResY       = 1080
)

// Camera is an immutable view description captured once per run.
type Camera struct {
	Position   v3.Vec
	Right      v3.Vec
	Up         v3.Vec
	Forward    v3.Vec
	Projection Projection
	FOV        float64 // full angle across the larger frame side, degrees
	OrthoScale float64 // frame width across the larger side, world units
	ResX       int
	ResY       int
}

// ErrDegenerate is returned when a camera basis cannot be built.
var ErrDegenerate = errors.New("camera: degenerate orientation")

// LookAt builds a perspective camera at pos looking toward target with the
// given approximate up direction.
func LookAt(pos, target, up v3.Vec) (*Camera, error) {
	fwd := target.Sub(pos)
	if fwd.Length() == 0 {
		return nil, ErrDegenerate
	}
	fwd = fwd.Normalize()
	right := fwd.Cross(up)
	if right.Length() < 1e-12 {
		return nil, ErrDegenerate
	}
	right = right.Normalize()
	return &Camera{
		Position:   pos,
		Right:      right,
		Up:         right.Cross(fwd),
		Forward:    fwd,
		FOV:        DefaultFOV,
		OrthoScale: DefaultOrthoScale,
		ResX:       DefaultResX,
		ResY:       DefaultResY,
	}, nil
}

// FromEuler builds a perspective camera at pos rotated by Euler angles in
// degrees, applied X then Y then Z. With no rotation the camera looks down
// -Z with +Y up.
func FromEuler(pos, rotDeg v3.Vec) *Camera {
	r := sdf.RotateZ(sdf.DtoR(rotDeg.Z)).Mul(sdf.RotateY(sdf.DtoR(rotDeg.Y))).Mul(sdf.RotateX(sdf.DtoR(rotDeg.X)))
	return &Camera{
		Position:   pos,
		Right:      r.MulPosition(v3.Vec{X: 1}),
		Up:         r.MulPosition(v3.Vec{Y: 1}),
		Forward:    r.MulPosition(v3.Vec{Z: -1}),
		FOV:        DefaultFOV,
		OrthoScale: DefaultOrthoScale,
		ResX:       DefaultResX,
		ResY:       DefaultResY,
	}
}

// halfExtents returns half the frame size at unit depth (perspective) or
// in world units (orthographic) along right and up.
func (c *Camera) halfExtents() (float64, float64) {
	var h float64
	if c.Projection == Orthographic {
		h = c.OrthoScale / 2
	} else {
		h = math.Tan(sdf.DtoR(c.FOV) / 2)
	}
	w, ht := float64(c.ResX), float64(c.ResY)
	if w <= 0 || ht <= 0 {
		return h, h
	}
	if w >= ht {
		return h, h * ht / w
	}
	return h * w / ht, h
}

// View returns p in normalized view coordinates: X and Y span [0,1] across
// the frame and Z is the depth along the view axis. Perspective points in
// the camera plane map to (0.5, 0.5, 0).
func (c *Camera) View(p v3.Vec) v3.Vec {
	d := p.Sub(c.Position)
	x, y, z := d.Dot(c.Right), d.Dot(c.Up), d.Dot(c.Forward)
	hx, hy := c.halfExtents()
	if c.Projection == Orthographic {
		return v3.Vec{X: (x/hx + 1) / 2, Y: (y/hy + 1) / 2, Z: z}
	}
	if z == 0 {
		return v3.Vec{X: 0.5, Y: 0.5}
	}
	return v3.Vec{X: (x/(z*hx) + 1) / 2, Y: (y/(z*hy) + 1) / 2, Z: z}
}

// Scale returns the canvas size for an output scale: resolution / 500
// times scale on each axis.
func (c *Camera) Scale(outputScale float64) (float64, float64) {
	return float64(c.ResX) / 500 * outputScale, float64(c.ResY) / 500 * outputScale
}

// Aspect returns width over height of the render target.
func (c *Camera) Aspect() float64 {
	if c.ResY == 0 {
		return 1
	}
	return float64(c.ResX) / float64(c.ResY)
}
