// Package occlusion decides whether a point can be seen from a target
// (normally the camera) by casting rays against a mask hierarchy, with a
// crop policy classifying points that no geometry hides.
package occlusion

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/vamp/pkg/bvh"
	"github.com/chazu/vamp/pkg/camera"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Crop is the secondary classification applied when no geometry is hit.
type Crop int

const (
	CropNone  Crop = iota // every unhit point is visible
	CropFront             // points behind or at the camera plane are hidden
	CropFrame             // points outside the camera frame are hidden
)

// FrontEpsilon is the smallest depth CropFront accepts.
const FrontEpsilon = 0.01

func (c Crop) String() string {
	switch c {
	case CropFront:
		return "front"
	case CropFrame:
		return "frame"
	default:
		return "none"
	}
}

// ParseCrop accepts "none", "front" or "frame" in any case.
func ParseCrop(s string) (Crop, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CropNone, nil
	case "front":
		return CropFront, nil
	case "frame":
		return CropFrame, nil
	}
	return CropNone, fmt.Errorf("occlusion: unknown crop policy %q", s)
}

// Params control the ray test.
type Params struct {
	// Offset moves the ray origin toward the target by this fraction of
	// the origin-target distance.
	Offset float64
	// MaxDistance caps the ray length.
	MaxDistance float64
	Crop        Crop
}

// DefaultParams returns the stock offset, ray length and crop.
func DefaultParams() Params {
	return Params{Offset: 0.02, MaxDistance: 50, Crop: CropNone}
}

// Tester runs occlusion queries against one mask. It only reads shared
// state, so one Tester may serve many goroutines.
type Tester struct {
	index  *bvh.Tree
	cam    *camera.Camera
	params Params
}

// New returns a tester for the given mask index and camera.
func New(index *bvh.Tree, cam *camera.Camera, p Params) *Tester {
	return &Tester{index: index, cam: cam, params: p}
}

// Camera returns the camera the tester classifies against.
func (t *Tester) Camera() *camera.Camera { return t.cam }

// Hit reports whether the ray from origin toward target strikes mask
// geometry. The ray starts Offset*|target-origin| from origin and runs
// MaxDistance from there, stopping early at the target.
func (t *Tester) Hit(origin, target v3.Vec) bool {
	delta := target.Sub(origin)
	dist := delta.Length()
	if dist == 0 {
		return false
	}
	dir := delta.DivScalar(dist)
	skip := t.params.Offset * dist
	start := origin.Add(dir.MulScalar(skip))
	reach := math.Min(t.params.MaxDistance, dist-skip)
	if reach <= 0 {
		return false
	}
	_, hit := t.index.FirstHit(start, dir, reach)
	return hit
}

// Cropped reports whether the crop policy hides p.
func (t *Tester) Cropped(p v3.Vec) bool {
	switch t.params.Crop {
	case CropFront:
		return t.cam.View(p).Z < FrontEpsilon
	case CropFrame:
		v := t.cam.View(p)
		inside := v.X >= 0 && v.X <= 1 && v.Y >= 0 && v.Y <= 1 && v.Z > 0
		return !inside
	}
	return false
}

// IsOccluded reports whether origin is hidden when looking toward target:
// either geometry blocks the ray or the crop policy rejects origin.
func (t *Tester) IsOccluded(origin, target v3.Vec) bool {
	if t.Hit(origin, target) {
		return true
	}
	return t.Cropped(origin)
}

// Visible reports whether p can be seen from the camera.
func (t *Tester) Visible(p v3.Vec) bool {
	return !t.IsOccluded(p, t.cam.Position)
}

// Silhouette reports whether nothing lies directly behind p as seen from
// the camera, testing toward p + (p - camera).
func (t *Tester) Silhouette(p v3.Vec) bool {
	away := p.Add(p.Sub(t.cam.Position))
	return !t.IsOccluded(p, away)
}
