// Package models contains the shared data types of the flattened file tree.
package models

// Kind classifies a filesystem entry for traversal purposes. Symlinks and
// special files are normalized to one of the two kinds before they reach
// the tree.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// String returns a short human-readable kind name.
func (k Kind) String() string {
	if k == KindDirectory {
		return "dir"
	}
	return "file"
}

// Entry is one unqualified child of a directory, as produced by a listing.
type Entry struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// TreeNode represents one visible filesystem entry in the flattened tree.
// Path is the canonical absolute path and serves as the node's identity;
// Parent holds the owning directory's identity, never a pointer. Position
// in the sequence is owned by the tree, not by the node.
type TreeNode struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Parent   string `json:"parent,omitempty"`
	Depth    int    `json:"depth"`
	Expanded bool   `json:"expanded"`
}

// IsDir reports whether the node is directory-kind.
func (n *TreeNode) IsDir() bool {
	return n.Kind == KindDirectory
}
