// Package rebuild simplifies edge meshes produced by the visibility pass:
// it merges nearby vertices, dissolves collinear mid-edge vertices and can
// randomly thin out very short edges.
package rebuild

import (
	"math"

	"github.com/chazu/vamp/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
)

// Params control the merge and dissolve steps.
type Params struct {
	// MergeDistance is the largest distance at which two vertices merge.
	MergeDistance float64
	// CollinearAngle is the turn angle, in degrees, below which a vertex
	// with two neighbours is dissolved.
	CollinearAngle float64
}

// DefaultParams returns the stock merge distance and collinear angle.
func DefaultParams() Params {
	return Params{MergeDistance: 0.01, CollinearAngle: 0.5}
}

// Rebuild returns a simplified copy of m: vertices within MergeDistance
// are merged, collapsed and duplicate edges are dropped, and vertices with
// exactly two neighbours whose edges continue in nearly the same direction
// are dissolved until none is left. Faces are not carried over. The result
// is a fixpoint, so rebuilding it again changes nothing.
func Rebuild(m *mesh.EdgeMesh, p Params) *mesh.EdgeMesh {
	out := Merge(m, p.MergeDistance)
	dissolve(out, p.CollinearAngle)
	out.Compact()
	return out
}

// point is an rtreego entry for a merged vertex.
type point struct {
	index int
	pos   v3.Vec
	rect  rtreego.Rect
}

func (p *point) Bounds() rtreego.Rect { return p.rect }

func toPoint(v v3.Vec) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}

// Merge returns a copy of m with vertices closer than dist merged. Each
// vertex, in index order, joins the nearest earlier representative within
// dist or becomes a representative itself, so representatives are always
// more than dist apart. Zero-length and duplicate edges are dropped; faces
// are not carried over.
func Merge(m *mesh.EdgeMesh, dist float64) *mesh.EdgeMesh {
	out := mesh.New()
	if m == nil {
		return out
	}
	remap := make([]int, len(m.Vertices))
	if dist <= 0 {
		w := mesh.NewWelder(out, 0)
		for i, v := range m.Vertices {
			remap[i] = w.Add(v)
		}
	} else {
		half := dist / 2
		tree := rtreego.NewTree(3, 25, 50)
		for i, v := range m.Vertices {
			best, bestDist := -1, math.Inf(1)
			for _, s := range tree.SearchIntersect(toPoint(v).ToRect(half)) {
				rep := s.(*point)
				d := rep.pos.Sub(v).Length()
				if d <= dist && (d < bestDist || (d == bestDist && rep.index < best)) {
					best, bestDist = rep.index, d
				}
			}
			if best < 0 {
				best = out.AddVertex(v)
				tree.Insert(&point{index: best, pos: v, rect: toPoint(v).ToRect(half)})
			}
			remap[i] = best
		}
	}
	for _, e := range m.Edges {
		out.AddEdge(remap[e[0]], remap[e[1]])
	}
	out.Compact()
	return out
}

// turnAngle returns the angle in degrees between the directions v->a and
// b->v, which is zero when a, v and b are collinear with v between them.
func turnAngle(a, v, b v3.Vec) float64 {
	u, w := a.Sub(v), v.Sub(b)
	lu, lw := u.Length(), w.Length()
	if lu == 0 || lw == 0 {
		return 180
	}
	c := u.Dot(w) / (lu * lw)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// dissolve removes non-corner vertices from their edge chains in place,
// sweeping in index order until a sweep makes no change. A vertex whose
// neighbours are already joined is kept, since dissolving it would fold
// two edges onto one.
func dissolve(m *mesh.EdgeMesh, maxAngle float64) {
	for {
		adj := make([]map[int]struct{}, len(m.Vertices))
		for i := range adj {
			adj[i] = make(map[int]struct{})
		}
		for _, e := range m.Edges {
			adj[e[0]][e[1]] = struct{}{}
			adj[e[1]][e[0]] = struct{}{}
		}

		changed := false
		for v := range m.Vertices {
			if len(adj[v]) != 2 {
				continue
			}
			var nb [2]int
			k := 0
			for n := range adj[v] {
				nb[k] = n
				k++
			}
			a, b := nb[0], nb[1]
			if _, joined := adj[a][b]; joined {
				continue
			}
			if turnAngle(m.Vertices[a], m.Vertices[v], m.Vertices[b]) >= maxAngle {
				continue
			}
			delete(adj[a], v)
			delete(adj[b], v)
			delete(adj[v], a)
			delete(adj[v], b)
			adj[a][b] = struct{}{}
			adj[b][a] = struct{}{}
			changed = true
		}
		if !changed {
			return
		}

		var edges []mesh.Edge
		for v := range adj {
			for n := range adj[v] {
				if v < n {
					edges = append(edges, mesh.Edge{v, n})
				}
			}
		}
		sortEdges(edges)
		m.SetEdges(edges)
	}
}
