package trace

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// kdTree is a 3-d tree with one point per node. Points are removed lazily:
// a removed point stays in place but is skipped, and each node counts the
// live points below it so empty subtrees are pruned.
type kdTree struct {
	pts    []v3.Vec
	nodes  []kdNode
	nodeOf []int // point index -> node index
	root   int
}

type kdNode struct {
	point       int
	axis        int
	left, right int
	parent      int
	alive       int
	removed     bool
}

func coord(v v3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// lexLess orders points by x, then y, then z.
func lexLess(a, b v3.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func newKDTree(pts []v3.Vec) *kdTree {
	t := &kdTree{
		pts:    pts,
		nodes:  make([]kdNode, 0, len(pts)),
		nodeOf: make([]int, len(pts)),
		root:   -1,
	}
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.build(idx, 0, -1)
	return t
}

func (t *kdTree) build(idx []int, depth, parent int) int {
	if len(idx) == 0 {
		return -1
	}
	axis := depth % 3
	sort.Slice(idx, func(i, j int) bool {
		ci, cj := coord(t.pts[idx[i]], axis), coord(t.pts[idx[j]], axis)
		if ci != cj {
			return ci < cj
		}
		return idx[i] < idx[j]
	})
	mid := len(idx) / 2
	n := len(t.nodes)
	t.nodes = append(t.nodes, kdNode{point: idx[mid], axis: axis, parent: parent, alive: len(idx)})
	t.nodeOf[idx[mid]] = n
	left := t.build(idx[:mid], depth+1, n)
	right := t.build(idx[mid+1:], depth+1, n)
	t.nodes[n].left, t.nodes[n].right = left, right
	return n
}

// remove marks point i as visited.
func (t *kdTree) remove(i int) {
	n := t.nodeOf[i]
	if t.nodes[n].removed {
		return
	}
	t.nodes[n].removed = true
	for ; n >= 0; n = t.nodes[n].parent {
		t.nodes[n].alive--
	}
}

// nearest returns the live point closest to q. Among points at the same
// distance the lexicographically lowest wins.
func (t *kdTree) nearest(q v3.Vec) (int, bool) {
	best, bestD := -1, 0.0
	var visit func(n int)
	visit = func(n int) {
		if n < 0 || t.nodes[n].alive == 0 {
			return
		}
		nd := &t.nodes[n]
		if !nd.removed {
			p := t.pts[nd.point]
			d := p.Sub(q).Length2()
			if best < 0 || d < bestD || (d == bestD && lexLess(p, t.pts[best])) {
				best, bestD = nd.point, d
			}
		}
		diff := coord(q, nd.axis) - coord(t.pts[nd.point], nd.axis)
		near, far := nd.left, nd.right
		if diff > 0 {
			near, far = far, near
		}
		visit(near)
		if best < 0 || diff*diff <= bestD {
			visit(far)
		}
	}
	visit(t.root)
	return best, best >= 0
}
