package scene

import (
	"github.com/chazu/vamp/pkg/kernel"
	"github.com/chazu/vamp/pkg/mesh"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

// MeshData is a triangulated surface in local coordinates. Marked lists
// the edges flagged for the marked detail pass.
type MeshData struct {
	Vertices []v3.Vec    `json:"vertices"`
	Faces    []mesh.Face `json:"faces"`
	Marked   []mesh.Edge `json:"marked,omitempty"`
}

func (MeshData) nodeData() {}

// PolylineData is a curve already evaluated to open polylines.
type PolylineData struct {
	Polylines [][]v3.Vec `json:"polylines"`
}

func (PolylineData) nodeData() {}

// StrokeData is a set of drawn strokes. Line-art strokes are generated
// from other geometry and must be baked before they can be rendered.
type StrokeData struct {
	Strokes [][]v3.Vec `json:"strokes"`
	LineArt bool       `json:"line_art,omitempty"`
	Baked   bool       `json:"baked,omitempty"`
}

func (StrokeData) nodeData() {}

// SolidData is a kernel solid, tessellated into a surface on demand.
type SolidData struct {
	Solid kernel.Solid `json:"-"`
	Cells int          `json:"cells,omitempty"` // marching cubes resolution, 0 = kernel default
}

func (SolidData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData places its children. Rotation is Euler XYZ in degrees,
// applied after scale and before translation.
type TransformData struct {
	Translation *v3.Vec `json:"translation,omitempty"`
	Rotation    *v3.Vec `json:"rotation,omitempty"`
	Scale       *v3.Vec `json:"scale,omitempty"`
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData is a named collection.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}

// Matrix returns translate * rotate * scale.
func (t TransformData) Matrix() sdf.M44 {
	m := sdf.Identity3d()
	if t.Translation != nil {
		m = m.Mul(sdf.Translate3d(*t.Translation))
	}
	if t.Rotation != nil {
		r := *t.Rotation
		m = m.Mul(sdf.RotateZ(sdf.DtoR(r.Z))).Mul(sdf.RotateY(sdf.DtoR(r.Y))).Mul(sdf.RotateX(sdf.DtoR(r.X)))
	}
	if t.Scale != nil {
		m = m.Mul(sdf.Scale3d(*t.Scale))
	}
	return m
}
