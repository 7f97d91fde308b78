package scene

import (
	"fmt"
	"sort"

	"github.com/chazu/vamp/pkg/camera"
)

// Scene is the top-level immutable data structure produced by script
// evaluation. It is never mutated in place; each evaluation produces a new
// scene.
type Scene struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Camera    *camera.Camera    `json:"camera,omitempty"`
	Frame     int               `json:"frame"`
	Version   uint64            `json:"version"`
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the scene. It does not check for duplicates.
func (s *Scene) AddNode(n *Node) {
	s.Nodes[n.ID] = n
	if n.Name != "" {
		s.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the scene.
func (s *Scene) AddRoot(id NodeID) {
	s.Roots = append(s.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (s *Scene) Lookup(name string) *Node {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (s *Scene) MustLookup(name string) *Node {
	n := s.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("scene: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (s *Scene) Get(id NodeID) *Node {
	return s.Nodes[id]
}

// Collection returns the group node with the given name, or nil if there
// is none or the name belongs to another kind of node.
func (s *Scene) Collection(name string) *Node {
	n := s.Lookup(name)
	if n == nil || n.Kind != NodeGroup {
		return nil
	}
	return n
}

// Collections returns the names of all group nodes, sorted.
func (s *Scene) Collections() []string {
	var names []string
	for _, n := range s.Nodes {
		if n.Kind == NodeGroup && n.Name != "" {
			names = append(names, n.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Objects returns all object nodes in the scene.
func (s *Scene) Objects() []*Node {
	var objs []*Node
	for _, n := range s.Nodes {
		if n.Kind == NodeObject {
			objs = append(objs, n)
		}
	}
	return objs
}

// Children returns the child nodes of the given node.
func (s *Scene) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := s.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (s *Scene) NodeCount() int {
	return len(s.Nodes)
}

// Reachable returns the IDs of root and every node below it.
func (s *Scene) Reachable(root *Node) map[NodeID]bool {
	seen := map[NodeID]bool{root.ID: true}
	queue := []NodeID{root.ID}
	for len(queue) > 0 {
		n := s.Nodes[queue[0]]
		queue = queue[1:]
		if n == nil {
			continue
		}
		for _, c := range n.Children {
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return seen
}
