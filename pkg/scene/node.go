package scene

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeID is a content-addressed identifier for scene nodes: the hex SHA-256
// of the node's construction path.
type NodeID string

// ZeroID is the empty node ID.
const ZeroID NodeID = ""

// NewNodeID derives a node ID from a construction path such as
// "object/floor".
func NewNodeID(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == ZeroID }

// Short returns the first 8 hex digits, for messages.
func (id NodeID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

func (id NodeID) String() string { return string(id) }

// NodeKind enumerates the types of nodes in the scene graph.
type NodeKind int

const (
	NodeObject    NodeKind = iota // renderable object
	NodeTransform                 // spatial transformation (place)
	NodeGroup                     // collection of objects
)

func (k NodeKind) String() string {
	switch k {
	case NodeObject:
		return "object"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the scene graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
