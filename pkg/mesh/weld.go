package mesh

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// WeldEpsilon is the tolerance used when vertices are identified by
// position: ingest welding and deduplication of micro-segment endpoints.
const WeldEpsilon = 1e-9

type cellKey struct{ x, y, z int64 }

// Welder adds vertices to a mesh, returning the index of an existing
// vertex when one lies within the tolerance. Lookups go through a grid
// hashed on quantized coordinates with cell size equal to the tolerance,
// so only the 27 cells around a point are searched. When several
// candidates qualify the oldest vertex wins.
type Welder struct {
	m     *EdgeMesh
	tol   float64
	cells map[cellKey][]int
	exact map[v3.Vec]int
}

// NewWelder returns a welder that appends to m. Vertices already in m are
// registered first. A tolerance of zero or less welds only identical
// coordinates.
func NewWelder(m *EdgeMesh, tol float64) *Welder {
	w := &Welder{m: m, tol: tol}
	if tol <= 0 {
		w.exact = make(map[v3.Vec]int)
	} else {
		w.cells = make(map[cellKey][]int)
	}
	for i, v := range m.Vertices {
		w.register(i, v)
	}
	return w
}

// maxCell bounds cell coordinates. Points beyond it share the edge cells,
// which keeps the key in range and the neighbour arithmetic from wrapping.
const maxCell = 1 << 52

func (w *Welder) key(p v3.Vec) cellKey {
	return cellKey{x: w.cell(p.X), y: w.cell(p.Y), z: w.cell(p.Z)}
}

func (w *Welder) cell(v float64) int64 {
	q := math.Floor(v / w.tol)
	switch {
	case q > maxCell:
		return maxCell
	case q < -maxCell:
		return -maxCell
	case math.IsNaN(q):
		return 0
	}
	return int64(q)
}

func (w *Welder) register(i int, p v3.Vec) {
	if w.exact != nil {
		if _, ok := w.exact[p]; !ok {
			w.exact[p] = i
		}
		return
	}
	k := w.key(p)
	w.cells[k] = append(w.cells[k], i)
}

// Find returns the index of the oldest vertex within tolerance of p.
func (w *Welder) Find(p v3.Vec) (int, bool) {
	if w.exact != nil {
		i, ok := w.exact[p]
		return i, ok
	}
	k := w.key(p)
	best := -1
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, i := range w.cells[cellKey{k.x + dx, k.y + dy, k.z + dz}] {
					if best >= 0 && i >= best {
						continue
					}
					if w.m.Vertices[i].Sub(p).Length() <= w.tol {
						best = i
					}
				}
			}
		}
	}
	return best, best >= 0
}

// Add returns the index of a vertex at p, appending one if none is within
// tolerance.
func (w *Welder) Add(p v3.Vec) int {
	if i, ok := w.Find(p); ok {
		return i
	}
	i := w.m.AddVertex(p)
	w.register(i, p)
	return i
}

// AddEdge welds both endpoints and adds the edge between them.
func (w *Welder) AddEdge(a, b v3.Vec) bool {
	return w.m.AddEdge(w.Add(a), w.Add(b))
}
