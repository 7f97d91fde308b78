package pipeline

import (
	"fmt"
	"strings"

	"github.com/chazu/vamp/pkg/ingest"
	"github.com/chazu/vamp/pkg/occlusion"
	"github.com/chazu/vamp/pkg/rebuild"
	"github.com/chazu/vamp/pkg/trace"
	"github.com/chazu/vamp/pkg/visibility"
)

// DetailSource selects the edges that enter the detail (slice) pass.
type DetailSource int

const (
	DetailAll    DetailSource = iota // every edge of the combined mesh
	DetailMarked                     // marked edges, plus creases when enabled
)

func (d DetailSource) String() string {
	if d == DetailMarked {
		return "marked"
	}
	return "all"
}

// ParseDetailSource accepts "all" or "marked".
func ParseDetailSource(s string) (DetailSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return DetailAll, nil
	case "marked", "creased":
		return DetailMarked, nil
	}
	return DetailAll, fmt.Errorf("pipeline: unknown detail source %q", s)
}

// SilhouetteScope selects the mask of the silhouette pass.
type SilhouetteScope int

const (
	ScopeCombined   SilhouetteScope = iota // one pass masked by the whole scene
	ScopeIndividual                        // one pass per object, then re-tested
)

func (s SilhouetteScope) String() string {
	if s == ScopeIndividual {
		return "individual"
	}
	return "combined"
}

// ParseSilhouetteScope accepts "combined" or "individual".
func ParseSilhouetteScope(s string) (SilhouetteScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "combined":
		return ScopeCombined, nil
	case "individual":
		return ScopeIndividual, nil
	}
	return ScopeCombined, fmt.Errorf("pipeline: unknown silhouette scope %q", s)
}

// Default pipeline values not owned by a stage package.
const (
	DefaultCollection     = "vamp"
	DefaultEdgeLimit      = 100000
	DefaultCullDistance   = 10
	DefaultTraceLimit     = 10000
	DefaultCurveTolerance = 0.001
)

// Params is the full configuration of one run.
type Params struct {
	// Collection names the scene collection to render.
	Collection string

	Scope  SilhouetteScope
	Detail DetailSource
	// Creases adds creased edges to the marked mesh at ingest.
	Creases     bool
	CreaseLimit float64

	Occlusion  occlusion.Params
	Visibility visibility.Params

	// EdgeLimit aborts the run when ingest produces more raw edges.
	EdgeLimit int

	// Cull drops objects whose origin is CullDistance or further from the
	// camera.
	Cull         bool
	CullDistance float64

	Rebuild rebuild.Params

	Denoise       bool
	DenoiseParams rebuild.DenoiseParams
	// Seed feeds the denoise random source.
	Seed int64

	// Scale multiplies the flattened canvas size.
	Scale float64

	Trace       bool
	TraceLimit  int
	TraceSource trace.Source
	Curve       trace.CurveKind
	// CurveTolerance bounds the distance between the traced curve and its
	// tessellated mesh.
	CurveTolerance float64
}

// DefaultParams returns the stock configuration.
func DefaultParams() Params {
	return Params{
		Collection:     DefaultCollection,
		Scope:          ScopeCombined,
		Detail:         DetailAll,
		CreaseLimit:    ingest.DefaultCreaseLimit,
		Occlusion:      occlusion.DefaultParams(),
		Visibility:     visibility.DefaultParams(),
		EdgeLimit:      DefaultEdgeLimit,
		CullDistance:   DefaultCullDistance,
		Rebuild:        rebuild.DefaultParams(),
		DenoiseParams:  rebuild.DefaultDenoiseParams(),
		Scale:          1,
		TraceLimit:     DefaultTraceLimit,
		TraceSource:    trace.SourceFaces,
		Curve:          trace.CurveBezier,
		CurveTolerance: DefaultCurveTolerance,
	}
}
