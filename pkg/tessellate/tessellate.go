// Package tessellate walks a scene graph and produces per-object source
// geometry for ingest: local vertices plus the accumulated world
// transform. Solids are tessellated through a geometry kernel.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/vamp/pkg/kernel"
	"github.com/chazu/vamp/pkg/mesh"
	"github.com/chazu/vamp/pkg/scene"
	"github.com/deadsy/sdfx/sdf"
)

// ErrUnbakedLineArt is returned when a line-art stroke that was never
// baked is reached.
var ErrUnbakedLineArt = errors.New("line-art stroke is not baked")

// transformStack accumulates spatial transforms during graph traversal.
type transformStack struct {
	mats []sdf.M44
}

func newTransformStack() *transformStack {
	return &transformStack{mats: []sdf.M44{sdf.Identity3d()}}
}

func (ts *transformStack) push(m sdf.M44) {
	ts.mats = append(ts.mats, ts.top().Mul(m))
}

func (ts *transformStack) pop() {
	if len(ts.mats) > 1 {
		ts.mats = ts.mats[:len(ts.mats)-1]
	}
}

// top returns the product of every transform on the stack.
func (ts *transformStack) top() sdf.M44 {
	return ts.mats[len(ts.mats)-1]
}

// Tessellate walks every root of the scene. The tessellator is read-only
// and never mutates the scene.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]mesh.Source, error) {
	if s == nil {
		return nil, nil
	}

	var srcs []mesh.Source
	ts := newTransformStack()
	for _, rootID := range s.Roots {
		root := s.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := walkNode(s, k, root, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		srcs = append(srcs, collected...)
	}
	return srcs, nil
}

// Collection walks only the named collection.
func Collection(s *scene.Scene, name string, k kernel.Kernel) ([]mesh.Source, error) {
	n := s.Collection(name)
	if n == nil {
		return nil, fmt.Errorf("tessellate: no collection named %q", name)
	}
	srcs, err := walkNode(s, k, n, newTransformStack())
	if err != nil {
		return nil, fmt.Errorf("tessellate: collection %q: %w", name, err)
	}
	return srcs, nil
}

// walkNode recursively traverses a node and its children, collecting
// sources.
func walkNode(s *scene.Scene, k kernel.Kernel, n *scene.Node, ts *transformStack) ([]mesh.Source, error) {
	switch n.Kind {
	case scene.NodeObject:
		src, err := handleObject(k, n, ts)
		if err != nil {
			return nil, err
		}
		return []mesh.Source{src}, nil

	case scene.NodeTransform:
		return handleTransform(s, k, n, ts)

	case scene.NodeGroup:
		return handleGroup(s, k, n, ts)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// objectName prefers the node's Name, falling back to the short ID.
func objectName(n *scene.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// handleObject converts an object node into a source under the current
// transform.
func handleObject(k kernel.Kernel, n *scene.Node, ts *transformStack) (mesh.Source, error) {
	src := mesh.Source{Name: objectName(n), Transform: ts.top()}

	switch data := n.Data.(type) {
	case scene.MeshData:
		src.Kind = mesh.KindSurface
		src.Vertices = data.Vertices
		src.Faces = data.Faces
		src.Marked = data.Marked
	case scene.PolylineData:
		src.Kind = mesh.KindCurve
		src.Polylines = data.Polylines
	case scene.StrokeData:
		if data.LineArt && !data.Baked {
			return src, fmt.Errorf("object %q: %w", src.Name, ErrUnbakedLineArt)
		}
		src.Kind = mesh.KindStroke
		src.Polylines = data.Strokes
	case scene.SolidData:
		if k == nil {
			return src, fmt.Errorf("object %q: solid needs a geometry kernel", src.Name)
		}
		m, err := k.ToMesh(data.Solid, data.Cells)
		if err != nil {
			return src, fmt.Errorf("tessellate: ToMesh failed for node %s: %w", n.ID.Short(), err)
		}
		src.Kind = mesh.KindSurface
		src.Vertices = m.Vertices
		src.Faces = m.Faces
	default:
		return src, fmt.Errorf("object node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
	return src, nil
}

// handleTransform pushes the transform, recurses into children, then pops.
func handleTransform(s *scene.Scene, k kernel.Kernel, n *scene.Node, ts *transformStack) ([]mesh.Source, error) {
	td, ok := n.Data.(scene.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	ts.push(td.Matrix())
	defer ts.pop()

	var srcs []mesh.Source
	for _, child := range s.Children(n) {
		collected, err := walkNode(s, k, child, ts)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, collected...)
	}
	return srcs, nil
}

// handleGroup recurses into children transparently.
func handleGroup(s *scene.Scene, k kernel.Kernel, n *scene.Node, ts *transformStack) ([]mesh.Source, error) {
	var srcs []mesh.Source
	for _, child := range s.Children(n) {
		collected, err := walkNode(s, k, child, ts)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, collected...)
	}
	return srcs, nil
}
