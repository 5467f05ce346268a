package bvh

import "fmt"

// ChildKind flags which children of a node reference triangles instead of
// other nodes.
type ChildKind int32

const (
	// Both children are internal nodes.
	BothInternal ChildKind = 0

	// The left child references a triangle.
	LeftLeaf ChildKind = 1 << 0

	// The right child references a triangle.
	RightLeaf ChildKind = 1 << 1

	// Both children reference triangles.
	BothLeaves = LeftLeaf | RightLeaf
)

// Returns true if the left child is a triangle reference.
func (k ChildKind) LeftIsLeaf() bool {
	return k&LeftLeaf != 0
}

// Returns true if the right child is a triangle reference.
func (k ChildKind) RightIsLeaf() bool {
	return k&RightLeaf != 0
}

func (k ChildKind) String() string {
	switch k {
	case BothInternal:
		return "internal"
	case LeftLeaf:
		return "left-leaf"
	case RightLeaf:
		return "right-leaf"
	case BothLeaves:
		return "leaves"
	}
	return fmt.Sprintf("kind(%d)", int32(k))
}

// Node is a BVH tree node. Left and Right index the tree's node list unless
// the matching ChildKind bit is set, in which case they index its triangle
// list. Every node has exactly two children.
type Node struct {
	ChildKind ChildKind
	Left      int32
	Right     int32
	AABB      AABB
}

// Create an unlinked node. Texture padding also uses this value.
func DefaultNode() Node {
	return Node{
		ChildKind: BothInternal,
		Left:      -1,
		Right:     -1,
	}
}

func (n Node) String() string {
	return fmt.Sprintf("{%s L: %d R: %d min: %v max: %v}", n.ChildKind, n.Left, n.Right, n.AABB.Min, n.AABB.Max)
}
