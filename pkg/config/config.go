// Package config holds the user-facing render settings: defaults come from
// struct tags, files are TOML and command-line flags are generated from
// the same fields.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"cogentcore.org/core/cli"
	"github.com/chazu/vamp/pkg/occlusion"
	"github.com/chazu/vamp/pkg/pipeline"
	"github.com/chazu/vamp/pkg/trace"
	"github.com/pelletier/go-toml/v2"
)

// Subdivision limit range.
const (
	MinSubdivisions = 2
	MaxSubdivisions = 100
)

// Params are the tunable render settings.
type Params struct {

	// Collection is the scene collection to render.
	Collection string `default:"vamp" toml:"collection"`

	// Silhouette is the silhouette scope: combined or individual.
	Silhouette string `default:"combined" toml:"silhouette"`

	// Detail selects the detail edges: all or marked.
	Detail string `default:"all" toml:"detail"`

	// Creases marks creased edges so the marked detail source picks them up.
	Creases bool `toml:"creases"`

	// CreaseLimit is the crease threshold in degrees, 0 to 180.
	CreaseLimit float64 `default:"160" toml:"crease_limit"`

	// CastSensitivity is the fraction of the ray length skipped at its
	// origin.
	CastSensitivity float64 `default:"0.02" toml:"cast_sensitivity"`

	// RaycastDistance caps the occlusion ray length.
	RaycastDistance float64 `default:"50" toml:"raycast_distance"`

	// Crop is the policy for points nothing occludes: none, front or frame.
	Crop string `default:"none" toml:"crop"`

	// Cull drops objects further than CullDistance from the camera.
	Cull         bool    `toml:"cull"`
	CullDistance float64 `default:"10" toml:"cull_distance"`

	// Scale multiplies the flattened canvas size.
	Scale float64 `default:"1" toml:"scale"`

	// Denoise randomly removes short edges.
	Denoise          bool    `toml:"denoise"`
	DenoiseThreshold float64 `default:"0.05" toml:"denoise_threshold"`
	DenoiseFraction  float64 `default:"1" toml:"denoise_fraction"`

	// Seed feeds the denoise random source; 0 picks one from the clock.
	Seed int64 `toml:"seed"`

	// EdgeLimit aborts runs with more raw edges.
	EdgeLimit int `default:"100000" toml:"edge_limit"`

	// SubdivisionLimit caps micro-segments per edge, 2 to 100.
	SubdivisionLimit int `default:"3" toml:"subdivision_limit"`

	// SubdivisionLength is the target micro-segment length.
	SubdivisionLength float64 `default:"0.005" toml:"subdivision_length"`

	// Workers classifying edges; 0 uses every CPU.
	Workers int `toml:"workers"`

	// Trace builds one continuous path.
	Trace       bool   `toml:"trace"`
	TraceLimit  int    `default:"10000" toml:"trace_limit"`
	TraceSource string `default:"faces" toml:"trace_source"`
	Curve       string `default:"bezier" toml:"curve"`
}

// Defaults returns Params with every default tag applied.
func Defaults() *Params {
	p := &Params{}
	cli.SetFromDefaults(p)
	return p
}

// Load reads a TOML file over the defaults. Unknown keys are an error.
func Load(path string) (*Params, error) {
	p := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := Decode(data, p); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// Decode reads TOML data into p, keeping fields the data does not set.
func Decode(data []byte, p *Params) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(p)
}

// Encode returns p as TOML.
func Encode(p *Params) ([]byte, error) {
	return toml.Marshal(p)
}

// Validate clamps numeric settings into range and checks the named
// options. It returns the first invalid option.
func (p *Params) Validate() error {
	p.CreaseLimit = clamp(p.CreaseLimit, 0, 180)
	p.SubdivisionLimit = int(clamp(float64(p.SubdivisionLimit), MinSubdivisions, MaxSubdivisions))
	p.DenoiseFraction = clamp(p.DenoiseFraction, 0.02, 1)
	if p.CastSensitivity < 0 {
		p.CastSensitivity = 0
	}
	if p.TraceLimit < 0 {
		p.TraceLimit = 0
	}
	if p.EdgeLimit < 0 {
		p.EdgeLimit = 0
	}
	if p.Scale <= 0 {
		return fmt.Errorf("config: scale must be positive, got %v", p.Scale)
	}
	if p.RaycastDistance <= 0 {
		return fmt.Errorf("config: raycast distance must be positive, got %v", p.RaycastDistance)
	}
	if p.SubdivisionLength <= 0 {
		return fmt.Errorf("config: subdivision length must be positive, got %v", p.SubdivisionLength)
	}
	_, err := p.Resolve()
	return err
}

// Resolve converts the settings into pipeline parameters.
func (p *Params) Resolve() (pipeline.Params, error) {
	out := pipeline.DefaultParams()
	var err error

	out.Collection = p.Collection
	if out.Scope, err = pipeline.ParseSilhouetteScope(p.Silhouette); err != nil {
		return out, fmt.Errorf("config: %w", err)
	}
	if out.Detail, err = pipeline.ParseDetailSource(p.Detail); err != nil {
		return out, fmt.Errorf("config: %w", err)
	}
	out.Creases = p.Creases
	out.CreaseLimit = p.CreaseLimit

	out.Occlusion.Offset = p.CastSensitivity
	out.Occlusion.MaxDistance = p.RaycastDistance
	if out.Occlusion.Crop, err = occlusion.ParseCrop(p.Crop); err != nil {
		return out, fmt.Errorf("config: %w", err)
	}

	out.Visibility.SubdivisionLength = p.SubdivisionLength
	out.Visibility.MaxSubdivisions = p.SubdivisionLimit
	out.Visibility.Workers = p.Workers

	out.EdgeLimit = p.EdgeLimit
	out.Cull = p.Cull
	out.CullDistance = p.CullDistance
	out.Scale = p.Scale

	out.Denoise = p.Denoise
	out.DenoiseParams.Threshold = p.DenoiseThreshold
	out.DenoiseParams.Fraction = p.DenoiseFraction
	out.Seed = p.Seed
	if out.Seed == 0 {
		out.Seed = time.Now().UnixNano()
	}

	out.Trace = p.Trace
	out.TraceLimit = p.TraceLimit
	if out.TraceSource, err = trace.ParseSource(p.TraceSource); err != nil {
		return out, fmt.Errorf("config: %w", err)
	}
	if out.Curve, err = trace.ParseCurveKind(p.Curve); err != nil {
		return out, fmt.Errorf("config: %w", err)
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
