package bvh

import (
	"time"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/log"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/pkg/errors"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}

type builder struct {
	logger log.Logger

	// Bvh nodes stored as a contiguous list; the root lives at index 0.
	nodes []Node

	// Triangles in input order.
	triangles []Triangle

	stats Stats
}

// Build a BVH tree from a flat list of triangle coordinates. Every group of
// FloatsPerTriangle values defines the three XYZ vertices of one triangle.
//
// Each node subset is split at the mean of its triangle centers along the
// axis with the widest center spread. The split does not guarantee a
// balanced tree. Build returns ErrInvalidInput if coords is empty or its
// length is not a multiple of FloatsPerTriangle and ErrDegenerateSplit if a
// subset cannot be split because all its triangles share the same center.
func Build(coords []float32) (*Tree, error) {
	triangles, err := trianglesFromCoords(coords)
	if err != nil {
		return nil, err
	}

	b := &builder{
		logger:    log.New("bvh builder"),
		nodes:     make([]Node, 1, len(triangles)),
		triangles: triangles,
	}
	b.nodes[0] = DefaultNode()
	b.stats.Triangles = len(triangles)

	start := time.Now()
	if len(triangles) == 1 {
		// A lone triangle cannot fill two child slots so the root
		// references it from both sides.
		b.nodes[0].AABB = triangles[0].AABB()
		b.nodes[0].ChildKind = BothLeaves
		b.nodes[0].Left = 0
		b.nodes[0].Right = 0
		b.stats.LeafRefs = 2
	} else {
		workList := make([]int32, len(triangles))
		for idx := range workList {
			workList[idx] = int32(idx)
		}
		if err = b.partition(0, workList, 0); err != nil {
			return nil, err
		}
	}

	b.stats.Nodes = len(b.nodes)
	b.stats.BuildTime = time.Since(start)
	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leaf refs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.LeafRefs,
	)

	return &Tree{
		nodes:     b.nodes,
		triangles: b.triangles,
		nodeCount: len(b.nodes),
		stats:     b.stats,
	}, nil
}

// Convert a flat coordinate list into a triangle list.
func trianglesFromCoords(coords []float32) ([]Triangle, error) {
	if len(coords) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "no triangles")
	}
	if len(coords)%FloatsPerTriangle != 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "coordinate count %d is not a multiple of %d", len(coords), FloatsPerTriangle)
	}

	triangles := make([]Triangle, 0, len(coords)/FloatsPerTriangle)
	for offset := 0; offset < len(coords); offset += FloatsPerTriangle {
		c := coords[offset : offset+FloatsPerTriangle]
		triangles = append(triangles, NewTriangle(
			types.Vec3{c[0], c[1], c[2]},
			types.Vec3{c[3], c[4], c[5]},
			types.Vec3{c[6], c[7], c[8]},
			int32(offset/FloatsPerTriangle),
		))
	}
	return triangles, nil
}

// Populate the node at nodeIndex with the triangles in workList (at least
// two entries) and recursively partition its children.
func (b *builder) partition(nodeIndex int32, workList []int32, depth int) error {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	// Calculate bounding box for node
	bbox := b.triangles[workList[0]].AABB()
	for _, triIndex := range workList[1:] {
		bbox.Surround(b.triangles[triIndex].AABB())
	}
	b.nodes[nodeIndex].AABB = bbox

	if len(workList) == 2 {
		b.nodes[nodeIndex].ChildKind = BothLeaves
		b.nodes[nodeIndex].Left = b.triangles[workList[0]].Index()
		b.nodes[nodeIndex].Right = b.triangles[workList[1]].Index()
		b.stats.LeafRefs += 2
		return nil
	}

	axis, pivot := b.splitPlane(workList)

	leftWorkList := make([]int32, 0, len(workList))
	rightWorkList := make([]int32, 0, len(workList))
	for _, triIndex := range workList {
		if b.triangles[triIndex].Center()[axis] < pivot {
			leftWorkList = append(leftWorkList, triIndex)
		} else {
			rightWorkList = append(rightWorkList, triIndex)
		}
	}

	if len(leftWorkList) == 0 || len(rightWorkList) == 0 {
		return errors.Wrapf(
			ErrDegenerateSplit,
			"node %d: %d triangles share center %v along axis %s",
			nodeIndex, len(workList), b.triangles[workList[0]].Center(), axis,
		)
	}

	// The left subtree is fully allocated before the right one.
	left, err := b.child(leftWorkList, depth)
	if err != nil {
		return err
	}
	b.nodes[nodeIndex].Left = left
	if len(leftWorkList) == 1 {
		b.nodes[nodeIndex].ChildKind |= LeftLeaf
	}

	right, err := b.child(rightWorkList, depth)
	if err != nil {
		return err
	}
	b.nodes[nodeIndex].Right = right
	if len(rightWorkList) == 1 {
		b.nodes[nodeIndex].ChildKind |= RightLeaf
	}

	return nil
}

// Return the child reference for a partition: the triangle index for
// single-triangle partitions or the index of a newly allocated node.
func (b *builder) child(workList []int32, depth int) (int32, error) {
	if len(workList) == 1 {
		b.stats.LeafRefs++
		return b.triangles[workList[0]].Index(), nil
	}

	childIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, DefaultNode())
	return childIndex, b.partition(childIndex, workList, depth+1)
}

// Select the split axis and pivot for a work list. The axis is the one with
// the widest spread of triangle centers and the pivot is the mean center
// along that axis.
func (b *builder) splitPlane(workList []int32) (Axis, float32) {
	first := b.triangles[workList[0]].Center()
	minCenter, maxCenter := first, first
	var centerSum types.Vec3
	for _, triIndex := range workList {
		center := b.triangles[triIndex].Center()
		minCenter = types.MinVec3(minCenter, center)
		maxCenter = types.MaxVec3(maxCenter, center)
		centerSum = centerSum.Add(center)
	}

	axis := splitAxis(maxCenter.Sub(minCenter).Abs())
	return axis, centerSum[axis] / float32(len(workList))
}

// Pick the axis with the largest extent. Ties resolve towards X, then Y.
func splitAxis(extent types.Vec3) Axis {
	axis := XAxis
	if extent[1] > extent[0] {
		axis = YAxis
	}
	if extent[2] > extent[1] && extent[2] > extent[0] {
		axis = ZAxis
	}
	return axis
}
