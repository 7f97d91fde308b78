package mesh

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind is the kind of a source object.
type Kind int

const (
	KindSurface Kind = iota // triangulated surface
	KindCurve               // curve evaluated to polylines
	KindStroke              // hand drawn or line-art strokes
)

func (k Kind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindCurve:
		return "curve"
	case KindStroke:
		return "stroke"
	default:
		return "unknown"
	}
}

// Source is one object's final geometry in local coordinates together with
// its world transform. Surfaces fill Vertices and Faces (and optionally
// Marked); curves and strokes fill Polylines.
type Source struct {
	Name      string
	Kind      Kind
	Transform sdf.M44
	Vertices  []v3.Vec
	Faces     []Face
	Marked    []Edge
	Polylines [][]v3.Vec
}

// World returns the world transform, treating the zero matrix as identity.
func (s *Source) World() sdf.M44 {
	if s.Transform == (sdf.M44{}) {
		return sdf.Identity3d()
	}
	return s.Transform
}

// Origin returns the world position of the object's local origin.
func (s *Source) Origin() v3.Vec {
	return s.World().MulPosition(v3.Vec{})
}
