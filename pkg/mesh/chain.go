package mesh

// Chains splits the edges of m into polylines given as vertex index
// sequences, so each edge is drawn once with as few pen lifts as a greedy
// walk allows. Walks start at vertices whose degree is not two (line ends
// and branch points) in index order; closed loops left over afterwards
// start at their lowest unvisited edge and repeat the first vertex at the
// end.
func Chains(m *EdgeMesh) [][]int {
	type link struct{ to, edge int }
	links := make([][]link, len(m.Vertices))
	for i, e := range m.Edges {
		links[e[0]] = append(links[e[0]], link{e[1], i})
		links[e[1]] = append(links[e[1]], link{e[0], i})
	}
	used := make([]bool, len(m.Edges))

	walk := func(start int) []int {
		chain := []int{start}
		cur := start
		for {
			next := -1
			for _, l := range links[cur] {
				if !used[l.edge] {
					used[l.edge] = true
					next = l.to
					break
				}
			}
			if next < 0 {
				return chain
			}
			chain = append(chain, next)
			cur = next
			if len(links[cur]) != 2 {
				return chain
			}
		}
	}

	var chains [][]int
	for v := range links {
		if len(links[v]) == 2 || len(links[v]) == 0 {
			continue
		}
		for {
			c := walk(v)
			if len(c) < 2 {
				break
			}
			chains = append(chains, c)
		}
	}
	for i, e := range m.Edges {
		for !used[i] {
			chains = append(chains, walk(e[0]))
		}
	}
	return chains
}
