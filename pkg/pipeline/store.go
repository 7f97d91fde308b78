package pipeline

import (
	"sort"
	"sync"

	"github.com/chazu/vamp/pkg/mesh"
)

// Artifact names.
const (
	ArtifactSlice          = "slice"
	ArtifactSilhouette     = "silhouette"
	ArtifactFlatSlice      = "flat-slice"
	ArtifactFlatSilhouette = "flat-silhouette"
	ArtifactTrace          = "trace"
	ArtifactTraceMesh      = "trace-mesh"
)

// Meshes returns the artifacts as named edge meshes. Flattened canvases
// are returned in canvas coordinates and the trace as its tessellated
// mesh; missing artifacts are left out.
func (a *Artifacts) Meshes() map[string]*mesh.EdgeMesh {
	out := make(map[string]*mesh.EdgeMesh)
	put := func(name string, m *mesh.EdgeMesh) {
		if m != nil {
			out[name] = m
		}
	}
	put(ArtifactSlice, a.Slice)
	put(ArtifactSilhouette, a.Silhouette)
	if a.FlatSlice != nil {
		put(ArtifactFlatSlice, a.FlatSlice.Mesh)
	}
	if a.FlatSilhouette != nil {
		put(ArtifactFlatSilhouette, a.FlatSilhouette.Mesh)
	}
	put(ArtifactTraceMesh, a.TraceMesh)
	return out
}

// Store holds the artifacts of the last successful run. Commits replace
// everything at once; readers never see a mix of two runs.
type Store struct {
	mu      sync.RWMutex
	current *Artifacts
	version uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Commit replaces the stored artifacts with a.
func (s *Store) Commit(a *Artifacts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = a
	s.version++
}

// Artifacts returns the last committed artifacts, or nil.
func (s *Store) Artifacts() *Artifacts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version counts commits.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Mesh returns one named artifact mesh.
func (s *Store) Mesh(name string) (*mesh.EdgeMesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	m, ok := s.current.Meshes()[name]
	return m, ok
}

// Names lists the artifacts currently held, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	var names []string
	for n := range s.current.Meshes() {
		names = append(names, n)
	}
	if s.current.Trace != nil {
		names = append(names, ArtifactTrace)
	}
	sort.Strings(names)
	return names
}
