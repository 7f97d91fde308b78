// Package trace turns a scattered point set into one continuous open path
// with a greedy nearest-neighbour walk, and emits it as a curve.
package trace

import (
	"fmt"
	"strings"

	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Source selects where trace points come from.
type Source int

const (
	SourceVerts          Source = iota // every vertex of the scene geometry
	SourceEdges                        // edge midpoints
	SourceFaces                        // triangle centroids
	SourceFlatSilhouette               // flattened silhouette edges
	SourceFlatSlice                    // flattened slice edges
)

var sourceNames = map[Source]string{
	SourceVerts:          "verts",
	SourceEdges:          "edges",
	SourceFaces:          "faces",
	SourceFlatSilhouette: "flat-silhouette",
	SourceFlatSlice:      "flat-slice",
}

func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Flat reports whether the source reads a flattened artifact.
func (s Source) Flat() bool {
	return s == SourceFlatSilhouette || s == SourceFlatSlice
}

// ParseSource accepts the names printed by String, case-insensitively.
// "flatsil" and "flatsliced" are accepted as aliases.
func ParseSource(s string) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "flatsil":
		return SourceFlatSilhouette, nil
	case "flatsliced":
		return SourceFlatSlice, nil
	}
	for src, name := range sourceNames {
		if name == key {
			return src, nil
		}
	}
	return SourceVerts, fmt.Errorf("trace: unknown source %q", s)
}

// Points collects candidate points from m: vertices, edge midpoints or
// face centroids. Flat sources take edge starts, then edge ends, then
// midpoints; when m has no edges they fall back to its vertices.
func Points(m *mesh.EdgeMesh, src Source) []v3.Vec {
	if m == nil {
		return nil
	}
	switch src {
	case SourceEdges:
		pts := make([]v3.Vec, 0, m.EdgeCount())
		for i := range m.Edges {
			pts = append(pts, m.EdgeMidpoint(i))
		}
		return pts
	case SourceFaces:
		pts := make([]v3.Vec, 0, m.FaceCount())
		for i := range m.Faces {
			pts = append(pts, m.FaceCenter(i))
		}
		return pts
	case SourceFlatSilhouette, SourceFlatSlice:
		if m.EdgeCount() == 0 {
			return append([]v3.Vec(nil), m.Vertices...)
		}
		pts := make([]v3.Vec, 0, 3*m.EdgeCount())
		for _, e := range m.Edges {
			pts = append(pts, m.Vertices[e[0]])
		}
		for _, e := range m.Edges {
			pts = append(pts, m.Vertices[e[1]])
		}
		for i := range m.Edges {
			pts = append(pts, m.EdgeMidpoint(i))
		}
		return pts
	}
	return append([]v3.Vec(nil), m.Vertices...)
}

// Dedupe drops exact coordinate repeats, keeping first occurrences in
// order.
func Dedupe(pts []v3.Vec) []v3.Vec {
	seen := make(map[v3.Vec]struct{}, len(pts))
	out := make([]v3.Vec, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Tour deduplicates pts and walks them greedily: it starts at the first
// point and repeatedly steps to the nearest unvisited one, breaking
// distance ties by the lowest coordinate. The tour holds min(limit, n)
// points, where n is the number of unique points.
func Tour(pts []v3.Vec, limit int) []v3.Vec {
	uniq := Dedupe(pts)
	n := len(uniq)
	if limit < n {
		n = limit
	}
	if n <= 0 {
		return nil
	}
	tree := newKDTree(uniq)
	tour := make([]v3.Vec, 0, n)
	cur := 0
	tree.remove(cur)
	tour = append(tour, uniq[cur])
	for len(tour) < n {
		next, ok := tree.nearest(uniq[cur])
		if !ok {
			break
		}
		tree.remove(next)
		tour = append(tour, uniq[next])
		cur = next
	}
	return tour
}
