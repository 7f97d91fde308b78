package scene

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// ValidateGeometry checks object payloads and transforms under root, or
// across the whole scene when root is nil.
func ValidateGeometry(s *Scene, root *Node) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	var within map[NodeID]bool
	if root != nil {
		within = s.Reachable(root)
	}
	for id, node := range s.Nodes {
		if within != nil && !within[id] {
			continue
		}
		switch d := node.Data.(type) {
		case MeshData:
			errs = append(errs, checkMesh(node.ID, d)...)
			if len(d.Faces) == 0 && len(d.Marked) == 0 {
				warnings = append(warnings, ValidationWarning{NodeID: node.ID, Message: "mesh has no faces"})
			}
		case PolylineData:
			errs = append(errs, checkPolylines(node.ID, "polyline", d.Polylines)...)
			if countPoints(d.Polylines) < 2 {
				warnings = append(warnings, ValidationWarning{NodeID: node.ID, Message: "curve has fewer than two points"})
			}
		case StrokeData:
			errs = append(errs, checkPolylines(node.ID, "stroke", d.Strokes)...)
			if d.LineArt && !d.Baked {
				warnings = append(warnings, ValidationWarning{
					NodeID:  node.ID,
					Message: "line-art stroke is not baked and will stop rendering",
				})
			}
		case SolidData:
			if d.Solid == nil {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  "solid object has no solid",
					Severity: SeverityError,
				})
			}
			if d.Cells < 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("solid cell count %d is negative", d.Cells),
					Severity: SeverityError,
				})
			}
		case TransformData:
			if d.Scale != nil && (d.Scale.X == 0 || d.Scale.Y == 0 || d.Scale.Z == 0) {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("scale %v collapses an axis", *d.Scale),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs, warnings
}

func checkMesh(id NodeID, d MeshData) []ValidationError {
	var errs []ValidationError
	n := len(d.Vertices)
	for i, v := range d.Vertices {
		if !finite(v) {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("vertex %d is not finite", i),
				Severity: SeverityError,
			})
		}
	}
	for i, f := range d.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= n {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("face %d references vertex %d of %d", i, vi, n),
					Severity: SeverityError,
				})
				break
			}
		}
	}
	for i, e := range d.Marked {
		if e[0] < 0 || e[1] < 0 || e[0] >= n || e[1] >= n {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("marked edge %d is out of range", i),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func checkPolylines(id NodeID, what string, lines [][]v3.Vec) []ValidationError {
	var errs []ValidationError
	for i, pl := range lines {
		for _, p := range pl {
			if !finite(p) {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("%s %d has a non-finite point", what, i),
					Severity: SeverityError,
				})
				break
			}
		}
	}
	return errs
}

func countPoints(lines [][]v3.Vec) int {
	n := 0
	for _, pl := range lines {
		n += len(pl)
	}
	return n
}

func finite(v v3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
