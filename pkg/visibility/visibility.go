// Package visibility cuts edges into micro-segments, classifies each one
// with an occlusion tester and collects the visible ("slice") and contour
// ("silhouette") segments into two edge meshes.
package visibility

import (
	"math"
	"runtime"
	"sync"

	"github.com/chazu/vamp/pkg/mesh"
	"github.com/chazu/vamp/pkg/occlusion"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Params control subdivision granularity and parallelism.
type Params struct {
	// SubdivisionLength is the target micro-segment length.
	SubdivisionLength float64
	// MaxSubdivisions caps the number of micro-segments per edge.
	MaxSubdivisions int
	// Workers is the number of goroutines classifying edges. Zero or less
	// uses GOMAXPROCS.
	Workers int
}

// DefaultParams returns the stock subdivision settings.
func DefaultParams() Params {
	return Params{SubdivisionLength: 0.005, MaxSubdivisions: 3, Workers: 1}
}

// Count returns the number of micro-segments for an edge of the given
// length: round(length/unit) clamped to [1, max].
func Count(length, unit float64, max int) int {
	if max < 1 {
		max = 1
	}
	if unit <= 0 {
		return max
	}
	n := math.RoundToEven(length / unit)
	if n < 1 {
		return 1
	}
	if n > float64(max) {
		return max
	}
	return int(n)
}

// Subdivide returns the n+1 evenly spaced points splitting a-b into n
// micro-segments. The first and last points are exactly a and b.
func Subdivide(a, b v3.Vec, unit float64, max int) []v3.Vec {
	n := Count(b.Sub(a).Length(), unit, max)
	pts := make([]v3.Vec, n+1)
	step := b.Sub(a).DivScalar(float64(n))
	pts[0] = a
	for i := 1; i < n; i++ {
		pts[i] = a.Add(step.MulScalar(float64(i)))
	}
	pts[n] = b
	return pts
}

// Result holds the two edge sets produced by one classification pass.
// Every silhouette edge is also a slice edge.
type Result struct {
	Slice      *mesh.EdgeMesh
	Silhouette *mesh.EdgeMesh
}

type segment [2]v3.Vec

type edgeResult struct {
	slice      []segment
	silhouette []segment
}

// Classify subdivides every edge of detail and tests the micro-segments
// with tester. A segment enters the slice set when both endpoints are
// visible and the silhouette set when, in addition, nothing lies behind
// either endpoint. Endpoints are welded at mesh.WeldEpsilon. Edges are
// processed in parallel but merged in edge order, so the output does not
// depend on the worker count.
func Classify(detail *mesh.EdgeMesh, tester *occlusion.Tester, p Params) Result {
	res := Result{Slice: mesh.New(), Silhouette: mesh.New()}
	if detail == nil || detail.EdgeCount() == 0 {
		return res
	}

	results := make([]edgeResult, detail.EdgeCount())
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(results) {
		workers = len(results)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(results); i += workers {
				a, b := detail.Segment(i)
				results[i] = classifyEdge(a, b, tester, p)
			}
		}(w)
	}
	wg.Wait()

	slice := mesh.NewWelder(res.Slice, mesh.WeldEpsilon)
	sil := mesh.NewWelder(res.Silhouette, mesh.WeldEpsilon)
	for _, r := range results {
		for _, s := range r.slice {
			slice.AddEdge(s[0], s[1])
		}
		for _, s := range r.silhouette {
			sil.AddEdge(s[0], s[1])
		}
	}
	return res
}

func classifyEdge(a, b v3.Vec, tester *occlusion.Tester, p Params) edgeResult {
	pts := Subdivide(a, b, p.SubdivisionLength, p.MaxSubdivisions)
	visible := make([]bool, len(pts))
	contour := make([]bool, len(pts))
	for i, pt := range pts {
		visible[i] = tester.Visible(pt)
		if visible[i] {
			contour[i] = tester.Silhouette(pt)
		}
	}

	var r edgeResult
	for i := 0; i+1 < len(pts); i++ {
		if !visible[i] || !visible[i+1] {
			continue
		}
		s := segment{pts[i], pts[i+1]}
		r.slice = append(r.slice, s)
		if contour[i] && contour[i+1] {
			r.silhouette = append(r.silhouette, s)
		}
	}
	return r
}
