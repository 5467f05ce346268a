package bvh

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tree is a built BVH. It owns the node and triangle lists; once built it is
// never mutated so it can be queried and serialized concurrently.
type Tree struct {
	nodes     []Node
	triangles []Triangle

	// Number of nodes before any texture padding was applied.
	nodeCount int

	stats Stats
}

// Reconstruct a tree from a triangle coordinate list and a node list that
// was previously produced by Build (optionally padded for texture upload).
// All node references reachable from the root are validated.
func NewTree(coords []float32, nodes []Node) (*Tree, error) {
	triangles, err := trianglesFromCoords(coords)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, errors.Wrap(ErrInvalidNodeBuffer, "no nodes")
	}

	tree := &Tree{
		nodes:     nodes,
		triangles: triangles,
	}
	if err = tree.validate(); err != nil {
		return nil, err
	}
	tree.stats.Triangles = len(triangles)
	tree.stats.Nodes = tree.nodeCount
	return tree, nil
}

// Walk all nodes reachable from the root and verify that their references
// point inside the node and triangle lists. It also recovers the number of
// non-padding nodes, the leaf reference count and the tree depth.
func (t *Tree) validate() error {
	type entry struct {
		index int32
		depth int
	}

	visited := make([]bool, len(t.nodes))
	stack := []entry{{0, 0}}
	maxIndex := int32(0)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur.index] {
			return errors.Wrapf(ErrInvalidNodeBuffer, "node %d is referenced more than once", cur.index)
		}
		visited[cur.index] = true
		if cur.index > maxIndex {
			maxIndex = cur.index
		}
		if cur.depth > t.stats.MaxDepth {
			t.stats.MaxDepth = cur.depth
		}

		node := t.nodes[cur.index]
		if node.ChildKind < BothInternal || node.ChildKind > BothLeaves {
			return errors.Wrapf(ErrInvalidNodeBuffer, "node %d has unknown child kind %d", cur.index, node.ChildKind)
		}
		refs := [2]struct {
			ref  int32
			leaf bool
		}{
			{node.Left, node.ChildKind.LeftIsLeaf()},
			{node.Right, node.ChildKind.RightIsLeaf()},
		}
		for _, r := range refs {
			if r.leaf {
				if r.ref < 0 || int(r.ref) >= len(t.triangles) {
					return errors.Wrapf(ErrInvalidNodeBuffer, "node %d references triangle %d; triangle count %d", cur.index, r.ref, len(t.triangles))
				}
				t.stats.LeafRefs++
				continue
			}
			if r.ref <= 0 || int(r.ref) >= len(t.nodes) {
				return errors.Wrapf(ErrInvalidNodeBuffer, "node %d references node %d; node count %d", cur.index, r.ref, len(t.nodes))
			}
			stack = append(stack, entry{r.ref, cur.depth + 1})
		}
	}

	t.nodeCount = int(maxIndex) + 1
	return nil
}

// Get the node list. The returned slice must not be modified.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Get the triangle list in input order. The returned slice must not be modified.
func (t *Tree) Triangles() []Triangle {
	return t.triangles
}

// Get the triangle with the given input index.
func (t *Tree) Triangle(index int32) *Triangle {
	if index < 0 || int(index) >= len(t.triangles) {
		panic(fmt.Sprintf("bvh: triangle index %d out of range [0, %d)", index, len(t.triangles)))
	}
	return &t.triangles[index]
}

// Get the node with the given index.
func (t *Tree) Node(index int32) *Node {
	if index < 0 || int(index) >= len(t.nodes) {
		panic(fmt.Sprintf("bvh: node index %d out of range [0, %d)", index, len(t.nodes)))
	}
	return &t.nodes[index]
}

// Get the number of tree nodes excluding texture padding.
func (t *Tree) NodeCount() int {
	return t.nodeCount
}

// Get tree statistics.
func (t *Tree) Stats() Stats {
	stats := t.stats
	stats.NodeTexSide = NodeTextureSide(t.nodeCount)
	return stats
}
