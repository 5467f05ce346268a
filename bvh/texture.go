package bvh

import (
	"math"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/pkg/errors"
)

// Node texture layout. Each node is packed into NodeTexelStride RGB32F
// texels:
//
//	texel 0: child kind, left child index, right child index
//	texel 1: bbox min x, y, z
//	texel 2: bbox max x, y, z
//
// Node i therefore starts at texel 3*i of the row-major texture. Indices are
// stored as floats so they remain exact up to 2^24.
const (
	TexelComponents = 3
	NodeTexelStride = 3
	NodeFloats      = NodeTexelStride * TexelComponents
)

// Get the side of the square node texture for nodeCount nodes. The side is
// the next power of two >= ceil(sqrt(NodeTexelStride * nodeCount)).
func NodeTextureSide(nodeCount int) int {
	return textureSide(NodeTexelStride * nodeCount)
}

// Get the side of the square vertex texture for vertexCount vertices. The
// side is the next power of two >= ceil(sqrt(vertexCount)).
func VertexTextureSide(vertexCount int) int {
	return textureSide(vertexCount)
}

func textureSide(texels int) int {
	return types.NextPowerOfTwo(int(math.Ceil(math.Sqrt(float64(texels)))))
}

// Node and triangle indices are stored as float32 values which represent
// every integer up to 2^24 exactly.
const MaxTextureIndex = 1 << 24

// ToTextureBuffer encodes the tree nodes padded with default nodes to
// side*side entries and returns the node data together with the texture
// side. Only the first NodeCount() nodes are reachable; padding is never
// referenced. The padding is applied to a copy so the tree is left untouched.
func (t *Tree) ToTextureBuffer() ([]float32, int, error) {
	if err := checkTextureIndices(t.nodeCount, len(t.triangles)); err != nil {
		return nil, 0, err
	}

	side := NodeTextureSide(t.nodeCount)
	nodes := make([]Node, side*side)
	for idx := copy(nodes, t.nodes[:t.nodeCount]); idx < len(nodes); idx++ {
		nodes[idx] = DefaultNode()
	}
	return EncodeNodes(nodes), side, nil
}

func checkTextureIndices(nodeCount, triangleCount int) error {
	if nodeCount > MaxTextureIndex {
		return errors.Wrapf(ErrInvalidNodeBuffer, "%d nodes exceed the float32 index limit of %d", nodeCount, MaxTextureIndex)
	}
	if triangleCount > MaxTextureIndex {
		return errors.Wrapf(ErrInvalidNodeBuffer, "%d triangles exceed the float32 index limit of %d", triangleCount, MaxTextureIndex)
	}
	return nil
}

// Encode nodes using the NodeFloats layout.
func EncodeNodes(nodes []Node) []float32 {
	data := make([]float32, len(nodes)*NodeFloats)
	for idx, node := range nodes {
		out := data[idx*NodeFloats : (idx+1)*NodeFloats]
		out[0] = float32(node.ChildKind)
		out[1] = float32(node.Left)
		out[2] = float32(node.Right)
		copy(out[3:6], node.AABB.Min[:])
		copy(out[6:9], node.AABB.Max[:])
	}
	return data
}

// Decode a node list encoded with EncodeNodes.
func DecodeNodes(data []float32) ([]Node, error) {
	if len(data)%NodeFloats != 0 {
		return nil, errors.Wrapf(ErrInvalidNodeBuffer, "buffer length %d is not a multiple of %d", len(data), NodeFloats)
	}

	nodes := make([]Node, len(data)/NodeFloats)
	for idx := range nodes {
		in := data[idx*NodeFloats : (idx+1)*NodeFloats]
		for _, v := range in[:3] {
			if v != float32(math.Trunc(float64(v))) {
				return nil, errors.Wrapf(ErrInvalidNodeBuffer, "node %d: non-integral header value %v", idx, v)
			}
		}
		nodes[idx] = Node{
			ChildKind: ChildKind(in[0]),
			Left:      int32(in[1]),
			Right:     int32(in[2]),
			AABB: AABB{
				Min: types.Vec3{in[3], in[4], in[5]},
				Max: types.Vec3{in[6], in[7], in[8]},
			},
		}
	}
	return nodes, nil
}

// Pack a triangle coordinate list into a square vertex texture with one XYZ
// vertex per texel. The buffer is zero-padded to side*side texels.
func VertexTexture(coords []float32) ([]float32, int) {
	side := VertexTextureSide(len(coords) / TexelComponents)
	data := make([]float32, side*side*TexelComponents)
	copy(data, coords)
	return data, side
}
