package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/vamp/pkg/camera"
	"github.com/chazu/vamp/pkg/kernel/sdfx"
	"github.com/chazu/vamp/pkg/scene"
	"github.com/chazu/vamp/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(box :size 2)`,
			expect: `(box "__kw_size" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(camera :fov 40 :res-x 800)`,
			expect: `(camera "__kw_fov" 40 "__kw_res-x" 800)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(sdf-box 1)`,
			expect: `(sdf_box 1)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:look-at`,
			expect: `"__kw_look-at"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// mustEval evaluates src with an sdfx kernel and fails the test on any error.
func mustEval(t *testing.T, src string, frame int) *scene.Scene {
	t.Helper()
	s, evalErrs, err := NewEngine(sdfx.New()).Evaluate(src, frame)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if s == nil {
		t.Fatal("expected non-nil scene")
	}
	return s
}

// evalErr evaluates src and returns the first eval error message.
func evalErr(t *testing.T, src string) string {
	t.Helper()
	_, evalErrs, err := NewEngine(nil).Evaluate(src, 0)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected eval error for %s", src)
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// Geometry builtins
// ---------------------------------------------------------------------------

func TestBoxObject(t *testing.T) {
	s := mustEval(t, `(collection "vamp" (object "cube" (box 4 2 1)))`, 0)

	cube := s.Lookup("cube")
	if cube == nil {
		t.Fatal("expected node named 'cube'")
	}
	if cube.Kind != scene.NodeObject {
		t.Errorf("expected NodeObject, got %s", cube.Kind)
	}
	md, ok := cube.Data.(scene.MeshData)
	if !ok {
		t.Fatalf("expected MeshData, got %T", cube.Data)
	}
	if len(md.Vertices) != 8 || len(md.Faces) != 12 {
		t.Fatalf("box has %d verts %d faces, want 8 and 12", len(md.Vertices), len(md.Faces))
	}
	for _, v := range md.Vertices {
		if math.Abs(v.X) != 2 || math.Abs(v.Y) != 1 || math.Abs(v.Z) != 0.5 {
			t.Errorf("vertex %v is not a corner of a centred 4x2x1 box", v)
		}
	}

	// Every face points away from the centre.
	for i, f := range md.Faces {
		a, b, c := md.Vertices[f[0]], md.Vertices[f[1]], md.Vertices[f[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		centre := a.Add(b).Add(c).DivScalar(3)
		if n.Dot(centre) <= 0 {
			t.Errorf("face %d faces inward", i)
		}
	}
}

func TestBoxSizes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want v3.Vec
	}{
		{"default", `(box)`, v3.Vec{X: 2, Y: 2, Z: 2}},
		{"uniform", `(box 3)`, v3.Vec{X: 3, Y: 3, Z: 3}},
		{"keyword vec3", `(box :size (vec3 1 2 3))`, v3.Vec{X: 1, Y: 2, Z: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustEval(t, `(object "b" `+tt.src+`)`, 0)
			md := s.Lookup("b").Data.(scene.MeshData)
			max := md.Vertices[6]
			if got := max.MulScalar(2); got != tt.want {
				t.Errorf("size = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlaneTriangleMesh(t *testing.T) {
	src := `
(object "p" (plane 4 2))
(object "t" (triangle (vec3 0 0 0) (vec3 1 0 0) (vec3 0 1 0)))
(object "m" (mesh :vertices (list (vec3 0 0 0) (vec3 1 0 0) (vec3 1 1 0) (vec3 0 1 0))
                  :faces (list (list 0 1 2 3))
                  :marked (list (list 0 1))))
`
	s := mustEval(t, src, 0)

	p := s.Lookup("p").Data.(scene.MeshData)
	if len(p.Faces) != 2 || p.Vertices[2] != (v3.Vec{X: 2, Y: 1}) {
		t.Errorf("plane = %+v", p)
	}
	tri := s.Lookup("t").Data.(scene.MeshData)
	if len(tri.Faces) != 1 {
		t.Errorf("triangle faces = %d, want 1", len(tri.Faces))
	}
	m := s.Lookup("m").Data.(scene.MeshData)
	if len(m.Faces) != 2 {
		t.Errorf("quad should fan into 2 triangles, got %d", len(m.Faces))
	}
	if len(m.Marked) != 1 || m.Marked[0][0] != 0 || m.Marked[0][1] != 1 {
		t.Errorf("marked = %v, want [[0 1]]", m.Marked)
	}
}

func TestPolylineAndStroke(t *testing.T) {
	src := `
(object "line" (polyline (vec3 0 0 0) (vec3 1 0 0) (vec3 1 1 0)))
(object "two" (polyline (list (vec3 0 0 0) (vec3 1 0 0)) (list (vec3 0 1 0) (vec3 1 1 0))))
(object "art" (stroke (list (vec3 0 0 0) (vec3 0 0 1)) :line-art true :baked true))
(object "raw" (stroke (list (vec3 0 0 0) (vec3 0 0 1)) :line-art true))
`
	s := mustEval(t, src, 0)

	if pd := s.Lookup("line").Data.(scene.PolylineData); len(pd.Polylines) != 1 || len(pd.Polylines[0]) != 3 {
		t.Errorf("line = %v", pd.Polylines)
	}
	if pd := s.Lookup("two").Data.(scene.PolylineData); len(pd.Polylines) != 2 {
		t.Errorf("two = %v", pd.Polylines)
	}
	art := s.Lookup("art").Data.(scene.StrokeData)
	if !art.LineArt || !art.Baked {
		t.Errorf("art = %+v, want line-art and baked", art)
	}
	raw := s.Lookup("raw").Data.(scene.StrokeData)
	if !raw.LineArt || raw.Baked {
		t.Errorf("raw = %+v, want unbaked line-art", raw)
	}
}

func TestSolidBuiltins(t *testing.T) {
	src := `
(def body (difference (sdf-box 2) (sdf-sphere 1.2)))
(def post (translate (sdf-cylinder :height 4 :radius 0.25) (vec3 3 0 0)))
(object "hollow" (solid (union body post) :cells 16))
(object "bare" (rotate (intersection (sdf-box 2) (sdf-sphere 1.2)) (vec3 0 0 45)))
`
	s := mustEval(t, src, 0)

	hollow := s.Lookup("hollow").Data.(scene.SolidData)
	if hollow.Solid == nil || hollow.Cells != 16 {
		t.Fatalf("hollow = %+v", hollow)
	}
	min, max := hollow.Solid.BoundingBox()
	if max[0] < 3.2 || min[0] > -0.9 {
		t.Errorf("union bounds %v..%v should span box and post", min, max)
	}
	if _, ok := s.Lookup("bare").Data.(scene.SolidData); !ok {
		t.Errorf("bare sdf should become SolidData, got %T", s.Lookup("bare").Data)
	}
}

func TestSolidWithoutKernel(t *testing.T) {
	msg := evalErr(t, `(sdf-sphere 1)`)
	if !strings.Contains(msg, "no geometry kernel") {
		t.Errorf("message = %q", msg)
	}
	msg = evalErr(t, `(union 1 2)`)
	if !strings.Contains(msg, "no geometry kernel") {
		t.Errorf("message = %q", msg)
	}
}

// ---------------------------------------------------------------------------
// Scene structure builtins
// ---------------------------------------------------------------------------

func TestPlaceAndCollection(t *testing.T) {
	src := `
(def a (object "a" (box 1)))
(def b (object "b" (box 1)))
(collection "vamp"
  (place a :at (vec3 0 0 1) :rotate (vec3 0 0 90) :scale 2)
  (list b))
`
	s := mustEval(t, src, 0)

	col := s.Collection("vamp")
	if col == nil {
		t.Fatal("expected collection 'vamp'")
	}
	if len(col.Children) != 2 {
		t.Fatalf("collection children = %d, want 2", len(col.Children))
	}
	place := s.Get(col.Children[0])
	if place.Kind != scene.NodeTransform {
		t.Fatalf("first child kind = %s, want transform", place.Kind)
	}
	td := place.Data.(scene.TransformData)
	if td.Translation == nil || *td.Translation != (v3.Vec{Z: 1}) {
		t.Errorf("translation = %v", td.Translation)
	}
	if td.Scale == nil || *td.Scale != (v3.Vec{X: 2, Y: 2, Z: 2}) {
		t.Errorf("scale = %v", td.Scale)
	}

	srcs, err := tessellate.Collection(s, "vamp", nil)
	if err != nil {
		t.Fatalf("tessellate: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("sources = %d, want 2", len(srcs))
	}
	if got := srcs[0].Origin(); got != (v3.Vec{Z: 1}) {
		t.Errorf("placed origin = %v, want (0,0,1)", got)
	}

	if r := scene.ValidateAll(s); !r.OK() {
		t.Errorf("scene should validate, got %v", r.Errors)
	}
}

func TestDuplicateNames(t *testing.T) {
	msg := evalErr(t, `(object "a" (box 1)) (object "a" (box 2))`)
	if !strings.Contains(msg, "already used") {
		t.Errorf("message = %q", msg)
	}
	msg = evalErr(t, `(collection "c") (collection "c")`)
	if !strings.Contains(msg, "already used") {
		t.Errorf("message = %q", msg)
	}
}

func TestCamera(t *testing.T) {
	s := mustEval(t, `(camera :at (vec3 0 -10 0) :look-at (vec3 0 0 0) :fov 50 :res-x 800 :res-y 600)`, 0)
	c := s.Camera
	if c == nil {
		t.Fatal("expected camera")
	}
	if c.Forward != (v3.Vec{Y: 1}) || c.Right != (v3.Vec{X: 1}) {
		t.Errorf("basis forward=%v right=%v", c.Forward, c.Right)
	}
	if c.FOV != 50 || c.ResX != 800 || c.ResY != 600 {
		t.Errorf("lens = %v %dx%d", c.FOV, c.ResX, c.ResY)
	}

	s = mustEval(t, `(camera :at (vec3 0 0 10) :rotation (vec3 0 0 0) :ortho 12)`, 0)
	if s.Camera.Projection != camera.Orthographic || s.Camera.OrthoScale != 12 {
		t.Errorf("camera = %+v, want orthographic scale 12", s.Camera)
	}
	if s.Camera.Forward != (v3.Vec{Z: -1}) {
		t.Errorf("forward = %v, want -Z", s.Camera.Forward)
	}

	msg := evalErr(t, `(camera :at (vec3 0 0 0) :look-at (vec3 0 0 0))`)
	if !strings.Contains(msg, "degenerate") {
		t.Errorf("message = %q", msg)
	}
}

func TestFrameBuiltin(t *testing.T) {
	s := mustEval(t, `
(def a (object "a" (box 1)))
(collection "vamp" (place a :at (vec3 (* 2 (frame)) 0 0)))
`, 3)
	col := s.Collection("vamp")
	td := s.Get(col.Children[0]).Data.(scene.TransformData)
	if td.Translation.X != 6 {
		t.Errorf("translation x = %v, want 6", td.Translation.X)
	}
}

func TestVec3Errors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(vec3 1 2)`, "exactly 3"},
		{`(vec3 1 "a" 3)`, "expected number"},
		{`(box 0)`, "must be positive"},
		{`(place 1)`, "expected node reference"},
		{`(object "x" (box 1) 2)`, "requires a name"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if msg := evalErr(t, tt.src); !strings.Contains(msg, tt.want) {
				t.Errorf("message = %q, want containing %q", msg, tt.want)
			}
		})
	}
}
