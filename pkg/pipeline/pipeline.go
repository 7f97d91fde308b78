// Package pipeline runs the whole line-art extraction for one frame: it
// checks the scene, ingests the chosen collection, classifies edges into
// slice and silhouette sets, simplifies and flattens them and optionally
// traces a single continuous path.
package pipeline

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/chazu/vamp/pkg/bvh"
	"github.com/chazu/vamp/pkg/camera"
	"github.com/chazu/vamp/pkg/flatten"
	"github.com/chazu/vamp/pkg/ingest"
	"github.com/chazu/vamp/pkg/kernel"
	"github.com/chazu/vamp/pkg/mesh"
	"github.com/chazu/vamp/pkg/occlusion"
	"github.com/chazu/vamp/pkg/rebuild"
	"github.com/chazu/vamp/pkg/scene"
	"github.com/chazu/vamp/pkg/tessellate"
	"github.com/chazu/vamp/pkg/trace"
	"github.com/chazu/vamp/pkg/visibility"
)

// Stats summarises one run.
type Stats struct {
	Objects         int `json:"objects"`
	RawEdges        int `json:"raw_edges"`
	SliceEdges      int `json:"slice_edges"`
	SilhouetteEdges int `json:"silhouette_edges"`
	TracePoints     int `json:"trace_points"`
}

// Artifacts are the outputs of one run. Trace and TraceMesh are nil when
// tracing is off.
type Artifacts struct {
	Frame          int             `json:"frame"`
	Slice          *mesh.EdgeMesh  `json:"slice"`
	Silhouette     *mesh.EdgeMesh  `json:"silhouette"`
	FlatSlice      *flatten.Canvas `json:"flat_slice"`
	FlatSilhouette *flatten.Canvas `json:"flat_silhouette"`
	Trace          *trace.Curve    `json:"trace,omitempty"`
	TraceMesh      *mesh.EdgeMesh  `json:"trace_mesh,omitempty"`
	Stats          Stats           `json:"stats"`
}

// Context is the state of a single invocation. Nothing in it outlives the
// run that built it.
type Context struct {
	Camera  *camera.Camera
	Sources []mesh.Source
	Params  Params
	Rand    *rand.Rand
	Frame   int

	masks  map[*mesh.EdgeMesh]*occlusion.Tester
	passes map[passKey]visibility.Result
}

type passKey struct {
	detail, mask *mesh.EdgeMesh
}

// Prepare checks the scene preconditions and tessellates the configured
// collection. Solids are meshed with k, which may be nil when the scene
// has none.
func Prepare(s *scene.Scene, k kernel.Kernel, p Params) (*Context, error) {
	col := s.Collection(p.Collection)
	if col == nil {
		return nil, &PreconditionError{Reason: fmt.Sprintf("no collection named %q", p.Collection)}
	}
	if len(col.Children) == 0 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("collection %q is empty", p.Collection)}
	}
	if s.Camera == nil {
		return nil, &PreconditionError{Reason: "scene has no camera"}
	}
	if err := checkScene(s, col); err != nil {
		return nil, err
	}

	srcs, err := tessellate.Collection(s, p.Collection, k)
	if errors.Is(err, tessellate.ErrUnbakedLineArt) {
		return nil, &PreconditionError{Reason: "line-art stroke must be baked first", Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if len(srcs) == 0 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("collection %q holds no objects", p.Collection)}
	}

	return &Context{
		Camera:  s.Camera,
		Sources: srcs,
		Params:  p,
		Rand:    rand.New(rand.NewSource(p.Seed)),
		Frame:   s.Frame,
	}, nil
}

// Run prepares and runs one frame of s.
func Run(s *scene.Scene, k kernel.Kernel, p Params) (*Artifacts, error) {
	c, err := Prepare(s, k, p)
	if err != nil {
		return nil, err
	}
	return c.Run()
}

// Run executes every stage. It returns either complete artifacts or an
// error, never a partial result.
func (c *Context) Run() (*Artifacts, error) {
	p := c.Params
	log := Logger()
	c.masks = make(map[*mesh.EdgeMesh]*occlusion.Tester)
	c.passes = make(map[passKey]visibility.Result)

	srcs := c.Sources
	if p.Cull {
		srcs = ingest.Cull(srcs, c.Camera.Position, p.CullDistance)
		log.Debug("cull", "kept", len(srcs), "of", len(c.Sources))
	}

	ing, err := ingest.Ingest(srcs, ingest.Params{
		Creases:     p.Creases,
		CreaseLimit: p.CreaseLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	log.Debug("ingest",
		"objects", len(ing.Objects),
		"raw_edges", ing.RawEdges,
		"edges", ing.Combined.EdgeCount(),
		"marked", ing.Marked.EdgeCount())

	if ing.RawEdges > p.EdgeLimit {
		return nil, &ResourceLimitError{Edges: ing.RawEdges, Limit: p.EdgeLimit}
	}

	art := &Artifacts{Frame: c.Frame}
	art.Stats.Objects = len(ing.Objects)
	art.Stats.RawEdges = ing.RawEdges

	// -----------------------------------------------------------------------
	// Visibility
	// -----------------------------------------------------------------------

	var silhouette *mesh.EdgeMesh
	switch p.Scope {
	case ScopeIndividual:
		parts := make([]*mesh.EdgeMesh, 0, len(ing.Objects))
		for _, obj := range ing.Objects {
			parts = append(parts, c.classify(obj.Mesh, obj.Mesh).Silhouette)
		}
		// Drop the parts hidden behind other objects.
		silhouette = c.classify(mesh.Join(parts...), ing.Combined).Slice
	default:
		silhouette = c.classify(ing.Combined, ing.Combined).Silhouette
	}

	detail := ing.Combined
	if p.Detail == DetailMarked {
		detail = ing.Marked
	}
	slice := c.classify(detail, ing.Combined).Slice
	log.Debug("visibility",
		"slice", slice.EdgeCount(),
		"silhouette", silhouette.EdgeCount(),
		"passes", len(c.passes),
		"masks", len(c.masks))

	// -----------------------------------------------------------------------
	// Rebuild, denoise, flatten
	// -----------------------------------------------------------------------

	art.Slice = rebuild.Rebuild(slice, p.Rebuild)
	art.Silhouette = rebuild.Rebuild(silhouette, p.Rebuild)
	if p.Denoise {
		art.Slice = rebuild.Denoise(art.Slice, p.DenoiseParams, c.Rand)
		art.Silhouette = rebuild.Denoise(art.Silhouette, p.DenoiseParams, c.Rand)
	}
	art.FlatSlice = flatten.Flatten(art.Slice, c.Camera, p.Scale)
	art.FlatSilhouette = flatten.Flatten(art.Silhouette, c.Camera, p.Scale)
	art.Stats.SliceEdges = art.Slice.EdgeCount()
	art.Stats.SilhouetteEdges = art.Silhouette.EdgeCount()

	// -----------------------------------------------------------------------
	// Trace
	// -----------------------------------------------------------------------

	if p.Trace {
		var from *mesh.EdgeMesh
		switch p.TraceSource {
		case trace.SourceFlatSilhouette:
			from = art.FlatSilhouette.Mesh
		case trace.SourceFlatSlice:
			from = art.FlatSlice.Mesh
		default:
			from = ing.Combined
		}
		tour := trace.Tour(trace.Points(from, p.TraceSource), p.TraceLimit)
		art.Trace = &trace.Curve{Kind: p.Curve, Points: tour}
		art.TraceMesh = art.Trace.Mesh(p.CurveTolerance)
		art.Stats.TracePoints = len(tour)
		log.Debug("trace", "source", p.TraceSource, "points", len(tour), "curve", p.Curve)
	}

	log.Info("frame rendered",
		"frame", c.Frame,
		"objects", art.Stats.Objects,
		"slice", art.Stats.SliceEdges,
		"silhouette", art.Stats.SilhouetteEdges,
		"trace", art.Stats.TracePoints)
	return art, nil
}

// classify runs one visibility pass of detail against mask. The tester of
// each mask and the result of each (detail, mask) pair are built once per
// run.
func (c *Context) classify(detail, mask *mesh.EdgeMesh) visibility.Result {
	key := passKey{detail, mask}
	if r, ok := c.passes[key]; ok {
		return r
	}
	t, ok := c.masks[mask]
	if !ok {
		t = occlusion.New(bvh.Build(mask), c.Camera, c.Params.Occlusion)
		c.masks[mask] = t
	}
	r := visibility.Classify(detail, t, c.Params.Visibility)
	c.passes[key] = r
	return r
}

// checkScene runs scene validation. Structural errors fail the
// preconditions; geometry errors under col are invalid geometry. Warnings
// are logged.
func checkScene(s *scene.Scene, col *scene.Node) error {
	var structural []error
	for _, e := range scene.Validate(s) {
		if e.Severity == scene.SeverityWarning {
			Logger().Warn("scene", "node", e.NodeID.Short(), "msg", e.Message)
			continue
		}
		structural = append(structural, e)
	}
	if len(structural) > 0 {
		return &PreconditionError{Reason: "scene is malformed", Err: errors.Join(structural...)}
	}

	geoErrs, warnings := scene.ValidateGeometry(s, col)
	for _, w := range warnings {
		Logger().Warn("scene", "node", w.NodeID.Short(), "msg", w.Message)
	}
	if len(geoErrs) > 0 {
		errs := make([]error, len(geoErrs))
		for i, e := range geoErrs {
			errs[i] = e
		}
		return fmt.Errorf("pipeline: %w: %w", ingest.ErrInvalidGeometry, errors.Join(errs...))
	}
	return nil
}
