package scene

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/vamp/pkg/mesh"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildTwoSquares creates a scene with two square meshes, one moved back,
// collected under "vamp".
func buildTwoSquares() *Scene {
	s := New()

	square := MeshData{
		Vertices: []v3.Vec{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}},
		Faces:    []mesh.Face{{0, 1, 2}, {0, 2, 3}},
	}
	nearID := NewNodeID("object/near")
	farID := NewNodeID("object/far")
	placeID := NewNodeID("place/far")
	groupID := NewNodeID("collection/vamp")

	s.AddNode(&Node{ID: nearID, Kind: NodeObject, Name: "near", Data: square})
	s.AddNode(&Node{ID: farID, Kind: NodeObject, Name: "far", Data: square})
	back := v3.Vec{Z: -5}
	s.AddNode(&Node{
		ID: placeID, Kind: NodeTransform,
		Children: []NodeID{farID},
		Data:     TransformData{Translation: &back},
	})
	s.AddNode(&Node{
		ID: groupID, Kind: NodeGroup, Name: "vamp",
		Children: []NodeID{nearID, placeID},
		Data:     GroupData{},
	})
	s.AddRoot(groupID)
	return s
}

func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarning(r ValidationResult, substr string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Scene
// ---------------------------------------------------------------------------

func TestNewScene(t *testing.T) {
	s := New()
	if s.Nodes == nil || s.NameIndex == nil {
		t.Fatal("maps should be initialized")
	}
	if s.NodeCount() != 0 {
		t.Errorf("empty scene should have 0 nodes, got %d", s.NodeCount())
	}
}

func TestNodeID(t *testing.T) {
	a := NewNodeID("object/a")
	if a != NewNodeID("object/a") {
		t.Error("NewNodeID is not deterministic")
	}
	if a == NewNodeID("object/b") {
		t.Error("different paths share an ID")
	}
	if len(a.Short()) != 8 {
		t.Errorf("Short() = %q", a.Short())
	}
	if a.IsZero() || !ZeroID.IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestLookupAndCollections(t *testing.T) {
	s := buildTwoSquares()
	if s.NodeCount() != 4 {
		t.Errorf("node count = %d, want 4", s.NodeCount())
	}
	if s.Collection("vamp") == nil {
		t.Fatal("collection vamp not found")
	}
	if s.Collection("near") != nil {
		t.Error("object returned as collection")
	}
	if got := s.Collections(); len(got) != 1 || got[0] != "vamp" {
		t.Errorf("Collections() = %v", got)
	}
	if len(s.Objects()) != 2 {
		t.Errorf("Objects() = %d, want 2", len(s.Objects()))
	}
	kids := s.Children(s.MustLookup("vamp"))
	if len(kids) != 2 || kids[0].Name != "near" {
		t.Errorf("children = %v", kids)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustLookup should panic on unknown name")
		}
	}()
	s.MustLookup("missing")
}

func TestTransformMatrix(t *testing.T) {
	at := v3.Vec{X: 1, Y: 2, Z: 3}
	rot := v3.Vec{Z: 90}
	scale := v3.Vec{X: 2, Y: 2, Z: 2}
	m := TransformData{Translation: &at, Rotation: &rot, Scale: &scale}.Matrix()
	// (1,0,0) scaled to (2,0,0), rotated to (0,2,0), moved to (1,4,3).
	got := m.MulPosition(v3.Vec{X: 1})
	if !got.Equals(v3.Vec{X: 1, Y: 4, Z: 3}, 1e-9) {
		t.Errorf("MulPosition = %v", got)
	}
	if (TransformData{}).Matrix() != sdf.Identity3d() {
		t.Error("empty transform should be identity")
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateValidScene(t *testing.T) {
	r := ValidateAll(buildTwoSquares())
	if !r.OK() {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestValidateStructure(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Scene)
		want   string
	}{
		{
			name: "cycle",
			mutate: func(s *Scene) {
				g := s.MustLookup("vamp")
				inner := NewNodeID("collection/inner")
				s.AddNode(&Node{ID: inner, Kind: NodeGroup, Name: "inner", Children: []NodeID{g.ID}, Data: GroupData{}})
				g.Children = append(g.Children, inner)
			},
			want: "cycle",
		},
		{
			name: "dangling child",
			mutate: func(s *Scene) {
				g := s.MustLookup("vamp")
				g.Children = append(g.Children, NewNodeID("nope"))
			},
			want: "does not exist",
		},
		{
			name: "duplicate name",
			mutate: func(s *Scene) {
				s.Nodes[NewNodeID("dup")] = &Node{ID: NewNodeID("dup"), Kind: NodeGroup, Name: "near", Data: GroupData{}}
				s.AddRoot(NewNodeID("dup"))
			},
			want: "duplicate name",
		},
		{
			name: "missing root",
			mutate: func(s *Scene) {
				s.AddRoot(NewNodeID("ghost"))
			},
			want: "root reference",
		},
		{
			name: "object with children",
			mutate: func(s *Scene) {
				n := s.MustLookup("near")
				n.Children = []NodeID{s.MustLookup("far").ID}
			},
			want: "object node has children",
		},
		{
			name: "wrong payload",
			mutate: func(s *Scene) {
				s.MustLookup("vamp").Data = MeshData{}
			},
			want: "unexpected data type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := buildTwoSquares()
			tt.mutate(s)
			if errs := Validate(s); !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, errs)
			}
		})
	}
}

func TestValidateOrphanWarning(t *testing.T) {
	s := buildTwoSquares()
	s.AddNode(&Node{ID: NewNodeID("object/lost"), Kind: NodeObject, Name: "lost", Data: PolylineData{
		Polylines: [][]v3.Vec{{{}, {X: 1}}},
	}})
	r := ValidateAll(s)
	if !r.OK() {
		t.Fatalf("orphans are not errors: %v", r.Errors)
	}
	if !hasWarning(r, "orphan") {
		t.Errorf("expected orphan warning, got %v", r.Warnings)
	}
}

func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name    string
		data    NodeData
		wantErr string
		wantWrn string
	}{
		{"face out of range", MeshData{Vertices: []v3.Vec{{}, {X: 1}}, Faces: []mesh.Face{{0, 1, 2}}}, "face 0", ""},
		{"nan vertex", MeshData{Vertices: []v3.Vec{{X: math.NaN()}}, Faces: []mesh.Face{{0, 0, 0}}}, "not finite", ""},
		{"empty mesh", MeshData{}, "", "no faces"},
		{"short curve", PolylineData{Polylines: [][]v3.Vec{{{}}}}, "", "fewer than two"},
		{"unbaked line art", StrokeData{Strokes: [][]v3.Vec{{{}, {X: 1}}}, LineArt: true}, "", "not baked"},
		{"nil solid", SolidData{}, "no solid", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := buildTwoSquares()
			s.MustLookup("near").Data = tt.data
			r := ValidateAll(s)
			if tt.wantErr != "" && !hasError(r.Errors, tt.wantErr) {
				t.Errorf("expected error %q, got %v", tt.wantErr, r.Errors)
			}
			if tt.wantErr == "" && !r.OK() {
				t.Errorf("unexpected errors: %v", r.Errors)
			}
			if tt.wantWrn != "" && !hasWarning(r, tt.wantWrn) {
				t.Errorf("expected warning %q, got %v", tt.wantWrn, r.Warnings)
			}
		})
	}

	s := buildTwoSquares()
	zero := v3.Vec{X: 1, Y: 0, Z: 1}
	for _, n := range s.Nodes {
		if n.Kind == NodeTransform {
			n.Data = TransformData{Scale: &zero}
		}
	}
	if r := ValidateAll(s); !hasError(r.Errors, "collapses") {
		t.Errorf("expected scale error, got %v", r.Errors)
	}
}
