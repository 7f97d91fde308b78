package pipeline

import (
	"fmt"

	"github.com/chazu/vamp/pkg/kernel"
	"github.com/chazu/vamp/pkg/scene"
	"github.com/chazu/vamp/pkg/tessellate"
)

// Inventory describes an evaluated scene: its collections, every object
// placement reachable from a root and the validation findings.
type Inventory struct {
	Frame       int          `json:"frame"`
	Camera      bool         `json:"camera"`
	Collections []string     `json:"collections"`
	Objects     []ObjectInfo `json:"objects"`
	Errors      []string     `json:"errors,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// ObjectInfo is one tessellated object placement.
type ObjectInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Vertices  int    `json:"vertices"`
	Faces     int    `json:"faces"`
	Marked    int    `json:"marked"`
	Polylines int    `json:"polylines"`
}

// OK reports whether the scene has no blocking findings.
func (inv *Inventory) OK() bool { return len(inv.Errors) == 0 }

// Inspect validates s and tessellates all of its roots with k. An object
// placed in two collections is listed twice.
func Inspect(s *scene.Scene, k kernel.Kernel) (*Inventory, error) {
	if s == nil {
		return nil, &PreconditionError{Reason: "no scene"}
	}
	inv := &Inventory{
		Frame:       s.Frame,
		Camera:      s.Camera != nil,
		Collections: s.Collections(),
	}

	res := scene.ValidateAll(s)
	for _, e := range res.Errors {
		inv.Errors = append(inv.Errors, e.Error())
	}
	for _, w := range res.Warnings {
		inv.Warnings = append(inv.Warnings, fmt.Sprintf("node %s: %s", w.NodeID.Short(), w.Message))
	}
	if !res.OK() {
		// Tessellating a malformed scene can fail in ways the findings
		// already describe.
		return inv, nil
	}

	srcs, err := tessellate.Tessellate(s, k)
	if err != nil {
		return inv, fmt.Errorf("pipeline: inspect: %w", err)
	}
	for _, src := range srcs {
		inv.Objects = append(inv.Objects, ObjectInfo{
			Name:      src.Name,
			Kind:      src.Kind.String(),
			Vertices:  len(src.Vertices),
			Faces:     len(src.Faces),
			Marked:    len(src.Marked),
			Polylines: len(src.Polylines),
		})
	}
	Logger().Debug("inspect", "collections", len(inv.Collections), "objects", len(inv.Objects),
		"errors", len(inv.Errors), "warnings", len(inv.Warnings))
	return inv, nil
}
