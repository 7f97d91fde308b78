package engine

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/chazu/vamp/pkg/camera"
	"github.com/chazu/vamp/pkg/kernel"
	"github.com/chazu/vamp/pkg/mesh"
	"github.com/chazu/vamp/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites scene source before passing it to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: sdf-box -> sdf_box
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpGeometry wraps object data returned by geometry builtins and
// consumed by `object`.
type sexpGeometry struct {
	data scene.NodeData
}

func (g *sexpGeometry) SexpString(ps *zygo.PrintState) string {
	switch d := g.data.(type) {
	case scene.MeshData:
		return fmt.Sprintf("(mesh %d verts %d faces)", len(d.Vertices), len(d.Faces))
	case scene.PolylineData:
		return fmt.Sprintf("(polyline %d lines)", len(d.Polylines))
	case scene.StrokeData:
		return fmt.Sprintf("(stroke %d strokes)", len(d.Strokes))
	case scene.SolidData:
		return "(solid)"
	}
	return "(geometry)"
}
func (g *sexpGeometry) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel.Solid between the sdf builtins.
type sexpSolid struct {
	solid kernel.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	min, max := s.solid.BoundingBox()
	return fmt.Sprintf("(sdf %v %v)", min, max)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a scene.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   scene.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; floats must be whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false. A bare trailing keyword counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (scene.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return scene.ZeroID, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSize accepts a vec3 or a single number meaning the same value on
// every axis.
func toSize(s zygo.Sexp) (v3.Vec, error) {
	if f, err := toFloat64(s); err == nil {
		return v3.Vec{X: f, Y: f, Z: f}, nil
	}
	return toVec3(s)
}

// toSolid extracts a kernel.Solid from a sexpSolid.
func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected sdf solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toPoints converts a list of vec3 values.
func toPoints(s zygo.Sexp) ([]v3.Vec, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	pts := make([]v3.Vec, 0, len(items))
	for i, item := range items {
		p, err := toVec3(item)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// toIndices converts a list of integers.
func toIndices(s zygo.Sexp) ([]int, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// toLines reads positional arguments as polylines: either a run of vec3
// values forming one line, or one list of vec3 per line.
func toLines(args []zygo.Sexp) ([][]v3.Vec, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if _, ok := args[0].(*sexpVec3); ok {
		line := make([]v3.Vec, 0, len(args))
		for i, a := range args {
			p, err := toVec3(a)
			if err != nil {
				return nil, fmt.Errorf("point %d: %w", i, err)
			}
			line = append(line, p)
		}
		return [][]v3.Vec{line}, nil
	}
	lines := make([][]v3.Vec, 0, len(args))
	for i, a := range args {
		pts, err := toPoints(a)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		lines = append(lines, pts)
	}
	return lines, nil
}

// ---------------------------------------------------------------------------
// Node ID generation
// ---------------------------------------------------------------------------

// nodeCounter provides unique suffixes for anonymous nodes.
var nodeCounter uint64

func nextNodeSuffix() string {
	n := atomic.AddUint64(&nodeCounter, 1)
	return fmt.Sprintf("_anon_%d", n)
}

// ---------------------------------------------------------------------------
// Built-in geometry
// ---------------------------------------------------------------------------

// boxMesh returns a box of the given size centred on the origin, two
// outward-facing triangles per side.
func boxMesh(size v3.Vec) scene.MeshData {
	h := size.MulScalar(0.5)
	verts := make([]v3.Vec, 0, 8)
	for _, c := range [8][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	} {
		verts = append(verts, v3.Vec{X: (2*c[0] - 1) * h.X, Y: (2*c[1] - 1) * h.Y, Z: (2*c[2] - 1) * h.Z})
	}
	quads := [6][4]int{
		{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7},
	}
	faces := make([]mesh.Face, 0, 12)
	for _, q := range quads {
		faces = append(faces, mesh.Face{q[0], q[1], q[2]}, mesh.Face{q[0], q[2], q[3]})
	}
	return scene.MeshData{Vertices: verts, Faces: faces}
}

// planeMesh returns a w by h rectangle in the XY plane centred on the
// origin, facing +Z.
func planeMesh(w, h float64) scene.MeshData {
	x, y := w/2, h/2
	return scene.MeshData{
		Vertices: []v3.Vec{{X: -x, Y: -y}, {X: x, Y: -y}, {X: x, Y: y}, {X: -x, Y: y}},
		Faces:    []mesh.Face{{0, 1, 2}, {0, 2, 3}},
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all scene DSL builtins into a zygomys
// environment. The builtins populate s during evaluation; solids are built
// with k, and (frame) returns frame.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene, k kernel.Kernel, frame int) {
	registerValues(env, frame)
	registerGeometry(env)
	registerSolids(env, k)
	registerScene(env, s)
}

func registerValues(env *zygo.Zlisp, frame int) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (frame)
	// -----------------------------------------------------------------------
	env.AddFunction("frame", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("frame takes no arguments")
		}
		return &zygo.SexpInt{Val: int64(frame)}, nil
	})
}

func registerGeometry(env *zygo.Zlisp) {

	// -----------------------------------------------------------------------
	// (box 2) (box 4 2 1) (box :size (vec3 4 2 1))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size := v3.Vec{X: 2, Y: 2, Z: 2}
		switch {
		case pa.kw["size"] != nil:
			v, err := toSize(pa.kw["size"])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			size = v
		case len(pa.positional) == 1:
			v, err := toSize(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			size = v
		case len(pa.positional) == 3:
			var c [3]float64
			for i, a := range pa.positional {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
				}
				c[i] = f
			}
			size = v3.Vec{X: c[0], Y: c[1], Z: c[2]}
		case len(pa.positional) != 0:
			return zygo.SexpNull, fmt.Errorf("box takes 1 or 3 sizes, got %d", len(pa.positional))
		}
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: size %v must be positive", size)
		}
		return &sexpGeometry{data: boxMesh(size)}, nil
	})

	// -----------------------------------------------------------------------
	// (plane 2) (plane 4 2)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		dims := []float64{2, 2}
		for i, a := range pa.positional {
			if i > 1 {
				return zygo.SexpNull, fmt.Errorf("plane takes at most 2 sizes")
			}
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: size: %w", err)
			}
			dims[i] = f
			if len(pa.positional) == 1 {
				dims[1] = f
			}
		}
		if dims[0] <= 0 || dims[1] <= 0 {
			return zygo.SexpNull, fmt.Errorf("plane: size must be positive")
		}
		return &sexpGeometry{data: planeMesh(dims[0], dims[1])}, nil
	})

	// -----------------------------------------------------------------------
	// (triangle (vec3 0 0 0) (vec3 1 0 0) (vec3 0 1 0))
	// -----------------------------------------------------------------------
	env.AddFunction("triangle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("triangle requires exactly 3 points, got %d", len(args))
		}
		verts := make([]v3.Vec, 3)
		for i, a := range args {
			p, err := toVec3(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("triangle: point %d: %w", i, err)
			}
			verts[i] = p
		}
		return &sexpGeometry{data: scene.MeshData{Vertices: verts, Faces: []mesh.Face{{0, 1, 2}}}}, nil
	})

	// -----------------------------------------------------------------------
	// (mesh :vertices (list (vec3 ...) ...) :faces (list (list 0 1 2) ...)
	//       :marked (list (list 0 1) ...))
	// Faces with more than three corners are fanned into triangles.
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var md scene.MeshData

		v, ok := pa.kw["vertices"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("mesh requires :vertices")
		}
		verts, err := toPoints(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: vertices: %w", err)
		}
		md.Vertices = verts

		if v, ok := pa.kw["faces"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: faces: %w", err)
			}
			for i, item := range items {
				idx, err := toIndices(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("mesh: face %d: %w", i, err)
				}
				if len(idx) < 3 {
					return zygo.SexpNull, fmt.Errorf("mesh: face %d has %d corners", i, len(idx))
				}
				for j := 1; j+1 < len(idx); j++ {
					md.Faces = append(md.Faces, mesh.Face{idx[0], idx[j], idx[j+1]})
				}
			}
		}
		if v, ok := pa.kw["marked"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: marked: %w", err)
			}
			for i, item := range items {
				idx, err := toIndices(item)
				if err != nil || len(idx) != 2 {
					return zygo.SexpNull, fmt.Errorf("mesh: marked edge %d must be two indices", i)
				}
				md.Marked = append(md.Marked, mesh.Edge{idx[0], idx[1]})
			}
		}
		return &sexpGeometry{data: md}, nil
	})

	// -----------------------------------------------------------------------
	// (polyline (vec3 ...) (vec3 ...) ...)
	// (polyline (list (vec3 ...) ...) (list ...))
	// -----------------------------------------------------------------------
	env.AddFunction("polyline", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		lines, err := toLines(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polyline: %w", err)
		}
		return &sexpGeometry{data: scene.PolylineData{Polylines: lines}}, nil
	})

	// -----------------------------------------------------------------------
	// (stroke (list (vec3 ...) ...) ... :line-art true :baked false)
	// -----------------------------------------------------------------------
	env.AddFunction("stroke", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		lines, err := toLines(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("stroke: %w", err)
		}
		sd := scene.StrokeData{Strokes: lines}
		if v, ok := pa.kw["line-art"]; ok {
			if sd.LineArt, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: line-art: %w", err)
			}
		}
		if v, ok := pa.kw["baked"]; ok {
			if sd.Baked, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stroke: baked: %w", err)
			}
		}
		return &sexpGeometry{data: sd}, nil
	})
}

// builtinFunc is the signature zygomys expects from AddFunction.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

func registerSolids(env *zygo.Zlisp, k kernel.Kernel) {
	// solidFn wraps a builtin that needs the geometry kernel.
	solidFn := func(label string, fn builtinFunc) builtinFunc {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if k == nil {
				return zygo.SexpNull, fmt.Errorf("%s: no geometry kernel configured", label)
			}
			return fn(env, name, args)
		}
	}

	// -----------------------------------------------------------------------
	// (sdf-box 2) (sdf-box 4 2 1)
	// Registered with underscores; the preprocessor rewrites the hyphens.
	// -----------------------------------------------------------------------
	env.AddFunction("sdf_box", solidFn("sdf-box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var size v3.Vec
		switch len(args) {
		case 1:
			v, err := toSize(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-box: %w", err)
			}
			size = v
		case 3:
			var c [3]float64
			for i, a := range args {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("sdf-box: %w", err)
				}
				c[i] = f
			}
			size = v3.Vec{X: c[0], Y: c[1], Z: c[2]}
		default:
			return zygo.SexpNull, fmt.Errorf("sdf-box takes 1 or 3 sizes, got %d", len(args))
		}
		return &sexpSolid{solid: k.Box(size.X, size.Y, size.Z)}, nil
	}))

	// -----------------------------------------------------------------------
	// (sdf-cylinder :height 2 :radius 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("sdf_cylinder", solidFn("sdf-cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, r := 2.0, 1.0
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-cylinder: height: %w", err)
			}
			h = f
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-cylinder: radius: %w", err)
			}
			r = f
		}
		return &sexpSolid{solid: k.Cylinder(h, r)}, nil
	}))

	// -----------------------------------------------------------------------
	// (sdf-sphere 1)
	// -----------------------------------------------------------------------
	env.AddFunction("sdf_sphere", solidFn("sdf-sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r := 1.0
		if len(args) > 0 {
			f, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sdf-sphere: radius: %w", err)
			}
			r = f
		}
		return &sexpSolid{solid: k.Sphere(r)}, nil
	}))

	// -----------------------------------------------------------------------
	// (union a b ...) (difference a b ...) (intersection a b ...)
	// -----------------------------------------------------------------------
	booleans := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        func(a, b kernel.Solid) kernel.Solid { return k.Union(a, b) },
		"difference":   func(a, b kernel.Solid) kernel.Solid { return k.Difference(a, b) },
		"intersection": func(a, b kernel.Solid) kernel.Solid { return k.Intersection(a, b) },
	}
	for label, op := range booleans {
		label, op := label, op
		env.AddFunction(label, solidFn(label, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids", label)
			}
			acc, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
			}
			for _, a := range args[1:] {
				s, err := toSolid(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
				}
				acc = op(acc, s)
			}
			return &sexpSolid{solid: acc}, nil
		}))
	}

	// -----------------------------------------------------------------------
	// (translate solid (vec3 1 0 0)) (rotate solid (vec3 0 0 45))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", solidFn("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a solid and a vec3")
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		v, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpSolid{solid: k.Translate(s, v.X, v.Y, v.Z)}, nil
	}))
	env.AddFunction("rotate", solidFn("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("rotate requires a solid and a vec3 of degrees")
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		v, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		return &sexpSolid{solid: k.Rotate(s, v.X, v.Y, v.Z)}, nil
	}))

	// -----------------------------------------------------------------------
	// (solid (sdf-sphere 1) :cells 32)
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires exactly one sdf solid")
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		sd := scene.SolidData{Solid: s}
		if v, ok := pa.kw["cells"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("solid: cells: %w", err)
			}
			sd.Cells = n
		}
		return &sexpGeometry{data: sd}, nil
	})
}

func registerScene(env *zygo.Zlisp, s *scene.Scene) {

	// -----------------------------------------------------------------------
	// (object "name" (box 1))
	// A bare sdf solid is accepted in place of (solid ...).
	// -----------------------------------------------------------------------
	env.AddFunction("object", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("object requires a name and a geometry expression")
		}
		objName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("object: name: %w", err)
		}
		if s.Lookup(objName) != nil {
			return zygo.SexpNull, fmt.Errorf("object: name %q already used", objName)
		}

		var data scene.NodeData
		switch body := args[1].(type) {
		case *sexpGeometry:
			data = body.data
		case *sexpSolid:
			data = scene.SolidData{Solid: body.solid}
		default:
			return zygo.SexpNull, fmt.Errorf("object: expected geometry expression, got %T", args[1])
		}

		id := scene.NewNodeID("object/" + objName)
		s.AddNode(&scene.Node{ID: id, Kind: scene.NodeObject, Name: objName, Data: data})
		return &sexpNodeRef{id: id, name: objName}, nil
	})

	// -----------------------------------------------------------------------
	// (place ref :at (vec3 0 0 1) :rotate (vec3 0 0 90) :scale 2)
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a node reference as first argument")
		}

		var children []scene.NodeID
		for i, p := range pa.positional {
			id, err := toNodeRef(p)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: child %d: %w", i, err)
			}
			children = append(children, id)
		}

		td := scene.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}
		if v, ok := pa.kw["scale"]; ok {
			vec, err := toSize(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: scale: %w", err)
			}
			td.Scale = &vec
		}

		idPath := "place/" + nextNodeSuffix()
		if c := s.Get(children[0]); c != nil && c.Name != "" {
			idPath = "place/" + c.Name + nextNodeSuffix()
		}
		id := scene.NewNodeID(idPath)
		s.AddNode(&scene.Node{ID: id, Kind: scene.NodeTransform, Children: children, Data: td})
		return &sexpNodeRef{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (collection "name" ref ref ...)
	// -----------------------------------------------------------------------
	env.AddFunction("collection", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("collection requires a name argument")
		}
		colName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("collection: name: %w", err)
		}
		if s.Lookup(colName) != nil {
			return zygo.SexpNull, fmt.Errorf("collection: name %q already used", colName)
		}

		var children []scene.NodeID
		for i := 1; i < len(args); i++ {
			items := []zygo.Sexp{args[i]}
			if _, ok := args[i].(*sexpNodeRef); !ok {
				if items, err = sexpListToSlice(args[i]); err != nil {
					return zygo.SexpNull, fmt.Errorf("collection: child %d: expected node reference, got %T (%s)",
						i, args[i], args[i].SexpString(nil))
				}
			}
			for _, item := range items {
				id, err := toNodeRef(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("collection: child %d: %w", i, err)
				}
				children = append(children, id)
			}
		}

		id := scene.NewNodeID("collection/" + colName)
		s.AddNode(&scene.Node{
			ID:       id,
			Kind:     scene.NodeGroup,
			Name:     colName,
			Children: children,
			Data:     scene.GroupData{},
		})
		s.AddRoot(id)
		return &sexpNodeRef{id: id, name: colName}, nil
	})

	// -----------------------------------------------------------------------
	// (camera :at (vec3 0 -10 2) :look-at (vec3 0 0 0) :up (vec3 0 0 1)
	//         :fov 39.6 :res-x 1920 :res-y 1080)
	// (camera :at (vec3 0 0 10) :rotation (vec3 0 0 0) :ortho 7)
	// -----------------------------------------------------------------------
	env.AddFunction("camera", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		var pos v3.Vec
		if v, ok := pa.kw["at"]; ok {
			p, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("camera: at: %w", err)
			}
			pos = p
		}

		var cam *camera.Camera
		if v, ok := pa.kw["look-at"]; ok {
			target, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("camera: look-at: %w", err)
			}
			up := v3.Vec{Z: 1}
			if u, ok := pa.kw["up"]; ok {
				if up, err = toVec3(u); err != nil {
					return zygo.SexpNull, fmt.Errorf("camera: up: %w", err)
				}
			}
			if cam, err = camera.LookAt(pos, target, up); err != nil {
				return zygo.SexpNull, fmt.Errorf("camera: %w", err)
			}
		} else {
			var rot v3.Vec
			if r, ok := pa.kw["rotation"]; ok {
				var err error
				if rot, err = toVec3(r); err != nil {
					return zygo.SexpNull, fmt.Errorf("camera: rotation: %w", err)
				}
			}
			cam = camera.FromEuler(pos, rot)
		}

		if v, ok := pa.kw["fov"]; ok {
			f, err := toFloat64(v)
			if err != nil || f <= 0 || f >= 180 {
				return zygo.SexpNull, fmt.Errorf("camera: fov must be a number in (0, 180)")
			}
			cam.FOV = f
		}
		if v, ok := pa.kw["ortho"]; ok {
			f, err := toFloat64(v)
			if err != nil || f <= 0 {
				return zygo.SexpNull, fmt.Errorf("camera: ortho scale must be positive")
			}
			cam.Projection = camera.Orthographic
			cam.OrthoScale = f
		}
		for key, dst := range map[string]*int{"res-x": &cam.ResX, "res-y": &cam.ResY} {
			if v, ok := pa.kw[key]; ok {
				n, err := toInt(v)
				if err != nil || n <= 0 {
					return zygo.SexpNull, fmt.Errorf("camera: %s must be a positive integer", key)
				}
				*dst = n
			}
		}

		s.Camera = cam
		return zygo.SexpNull, nil
	})
}
