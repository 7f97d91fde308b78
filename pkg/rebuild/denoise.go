package rebuild

import (
	"sort"

	"github.com/chazu/vamp/pkg/mesh"
)

// MinDenoiseFraction is the smallest accepted deletion fraction.
const MinDenoiseFraction = 0.02

// Rand is the random source Denoise draws from; *rand.Rand satisfies it.
type Rand interface {
	Perm(n int) []int
}

// DenoiseParams control the random thinning of short edges.
type DenoiseParams struct {
	// Threshold is the length below which an edge is a candidate.
	Threshold float64
	// Fraction of the candidates that are deleted, in [0.02, 1].
	Fraction float64
	// MergeDistance is used to re-merge vertices afterwards.
	MergeDistance float64
}

// DefaultDenoiseParams returns the stock denoise settings.
func DefaultDenoiseParams() DenoiseParams {
	return DenoiseParams{Threshold: 0.05, Fraction: 1, MergeDistance: 0.01}
}

// Candidates returns the indices of edges shorter than threshold.
func Candidates(m *mesh.EdgeMesh, threshold float64) []int {
	var c []int
	for i := range m.Edges {
		if m.EdgeLength(i) < threshold {
			c = append(c, i)
		}
	}
	return c
}

// Denoise deletes floor(len(candidates) * Fraction) edges chosen uniformly
// at random among those shorter than Threshold, drops vertices left
// without edges and re-merges the rest at MergeDistance. The random source
// is injected so a fixed seed reproduces the same result.
func Denoise(m *mesh.EdgeMesh, p DenoiseParams, rnd Rand) *mesh.EdgeMesh {
	frac := p.Fraction
	if frac < MinDenoiseFraction {
		frac = MinDenoiseFraction
	}
	if frac > 1 {
		frac = 1
	}
	cands := Candidates(m, p.Threshold)
	k := int(float64(len(cands)) * frac)

	drop := make(map[int]struct{}, k)
	if k > 0 {
		for _, j := range rnd.Perm(len(cands))[:k] {
			drop[cands[j]] = struct{}{}
		}
	}

	out := mesh.New()
	out.Vertices = append(out.Vertices, m.Vertices...)
	kept := make([]mesh.Edge, 0, len(m.Edges)-len(drop))
	for i, e := range m.Edges {
		if _, gone := drop[i]; !gone {
			kept = append(kept, e)
		}
	}
	out.SetEdges(kept)
	out.Compact()
	return Merge(out, p.MergeDistance)
}

func sortEdges(edges []mesh.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
}
