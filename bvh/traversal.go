package bvh

import (
	"fmt"
	"strings"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/pkg/errors"
)

// The initial capacity of the explicit traversal stack.
const stackPrealloc = 64

// Hit describes an accepted ray/triangle intersection.
type Hit struct {
	// Index of the hit triangle in the input list.
	Triangle int32

	// Flat triangle normal.
	Normal types.Vec3

	// Hit distance in units of the ray direction length.
	Distance float32
}

// TraversalMode selects a tree traversal algorithm.
type TraversalMode uint8

const (
	// Depth-first descent that returns on the first accepted hit.
	Recursive TraversalMode = iota

	// Explicit stack walk that drains every box hit by the ray and always
	// converges on the closest hit.
	Stack
)

var traversalModeNames = [...]string{"recursive", "stack"}

func (m TraversalMode) String() string {
	if int(m) < len(traversalModeNames) {
		return traversalModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", m)
}

// Parse a traversal mode name.
func ParseTraversalMode(name string) (TraversalMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for idx, modeName := range traversalModeNames {
		if modeName == name {
			return TraversalMode(idx), nil
		}
	}
	return Recursive, errors.Wrapf(ErrUnknownTraversalMode, "%q; supported modes: %s", name, strings.Join(traversalModeNames[:], ", "))
}

// TraverseFunc is the common signature of the tree traversal methods.
type TraverseFunc func(origin, dir types.Vec3, closest *float32) (Hit, bool)

// Get the traversal method that implements mode.
func (t *Tree) TraverseFunc(mode TraversalMode) TraverseFunc {
	if mode == Stack {
		return t.TraverseStack
	}
	return t.Traverse
}

// Traverse walks the tree depth-first and returns on the first triangle hit
// that improves *closest.
//
// Inside each node, triangle children are tested before node children and
// the right child is always visited before the left one. Because the search
// stops at the first accepted hit, a hit in a sibling subtree that is closer
// to the ray origin may be missed; use TraverseStack for a guaranteed closest
// hit. *closest acts as the maximum hit distance on input and is updated on
// a hit.
func (t *Tree) Traverse(origin, dir types.Vec3, closest *float32) (Hit, bool) {
	var hit Hit
	found := t.traverseNode(0, origin, dir, closest, &hit)
	return hit, found
}

func (t *Tree) traverseNode(nodeIndex int32, origin, dir types.Vec3, closest *float32, hit *Hit) bool {
	node := t.Node(nodeIndex)
	if !node.AABB.Intersects(origin, dir, *closest) {
		return false
	}

	kind := node.ChildKind
	if kind.RightIsLeaf() && t.intersectTriangle(node.Right, origin, dir, closest, hit) {
		return true
	}
	if kind.LeftIsLeaf() && t.intersectTriangle(node.Left, origin, dir, closest, hit) {
		return true
	}
	if !kind.RightIsLeaf() && t.traverseNode(node.Right, origin, dir, closest, hit) {
		return true
	}
	if !kind.LeftIsLeaf() && t.traverseNode(node.Left, origin, dir, closest, hit) {
		return true
	}
	return false
}

// TraverseStack walks the tree using an explicit stack and returns the
// closest triangle hit that improves *closest.
//
// For nodes with two node children both child boxes are tested against the
// ray and the ones that are hit get pushed, right before left. For nodes
// with triangle children the node child (if any) is pushed and the triangle
// children are tested immediately, right before left. The walk ends when the
// stack is empty.
func (t *Tree) TraverseStack(origin, dir types.Vec3, closest *float32) (Hit, bool) {
	var hit Hit
	found := false

	stack := make([]int32, 1, stackPrealloc)
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := t.Node(nodeIndex)
		if !node.AABB.Intersects(origin, dir, *closest) {
			continue
		}

		kind := node.ChildKind
		if kind == BothInternal {
			rightHit := t.Node(node.Right).AABB.Intersects(origin, dir, *closest)
			leftHit := t.Node(node.Left).AABB.Intersects(origin, dir, *closest)
			if rightHit {
				stack = append(stack, node.Right)
			}
			if leftHit {
				stack = append(stack, node.Left)
			}
			continue
		}

		if !kind.RightIsLeaf() {
			stack = append(stack, node.Right)
		}
		if !kind.LeftIsLeaf() {
			stack = append(stack, node.Left)
		}
		if kind.RightIsLeaf() && t.intersectTriangle(node.Right, origin, dir, closest, &hit) {
			found = true
		}
		if kind.LeftIsLeaf() && t.intersectTriangle(node.Left, origin, dir, closest, &hit) {
			found = true
		}
	}

	return hit, found
}

func (t *Tree) intersectTriangle(triIndex int32, origin, dir types.Vec3, closest *float32, hit *Hit) bool {
	normal, ok := t.Triangle(triIndex).Intersects(origin, dir, closest)
	if !ok {
		return false
	}
	*hit = Hit{
		Triangle: triIndex,
		Normal:   normal,
		Distance: *closest,
	}
	return true
}
