package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// Camera settings stored with a compiled scene.
type Camera struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
}

// Scene is a compiled scene. Geometry is stored as a flat triangle
// coordinate list (9 floats per triangle, input order) and the BVH as an
// encoded node texture (see bvh.EncodeNodes) padded to NodeTexSide^2 nodes.
type Scene struct {
	Name string

	Vertices      []float32
	VertexTexSide int

	Nodes       []float32
	NodeTexSide int

	// Number of nodes before texture padding.
	NodeCount int

	Camera *Camera

	tree *bvh.Tree
}

// Create a compiled scene from a built tree and its triangle coordinates.
func New(name string, coords []float32, tree *bvh.Tree) (*Scene, error) {
	nodeData, nodeSide, err := tree.ToTextureBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "scene: could not serialize %q", name)
	}
	return &Scene{
		Name:          name,
		Vertices:      coords,
		VertexTexSide: bvh.VertexTextureSide(len(coords) / bvh.TexelComponents),
		Nodes:         nodeData,
		NodeTexSide:   nodeSide,
		NodeCount:     tree.NodeCount(),
		tree:          tree,
	}, nil
}

// Get the scene BVH. Scenes loaded from disk rebuild the tree from the
// encoded node texture on first access.
func (sc *Scene) Tree() (*bvh.Tree, error) {
	if sc.tree != nil {
		return sc.tree, nil
	}

	nodes, err := bvh.DecodeNodes(sc.Nodes)
	if err != nil {
		return nil, err
	}
	tree, err := bvh.NewTree(sc.Vertices, nodes)
	if err != nil {
		return nil, err
	}
	if tree.NodeCount() != sc.NodeCount {
		return nil, errors.Wrapf(bvh.ErrInvalidNodeBuffer, "scene: expected %d reachable nodes; got %d", sc.NodeCount, tree.NodeCount())
	}

	sc.tree = tree
	return tree, nil
}

// Get the padded vertex texture data.
func (sc *Scene) VertexTexture() []float32 {
	data, _ := bvh.VertexTexture(sc.Vertices)
	return data
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Size"})
	table.Append([]string{"Geometry", "---", fmtSize(sc.Vertices)})
	table.Append([]string{"", "Triangles", fmt.Sprintf("%d", len(sc.Vertices)/bvh.FloatsPerTriangle)})
	table.Append([]string{"", "Vertex texture", fmt.Sprintf("%dx%d", sc.VertexTexSide, sc.VertexTexSide)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"BVH", "---", fmtSize(sc.Nodes)})
	table.Append([]string{"", "Nodes", fmt.Sprintf("%d", sc.NodeCount)})
	table.Append([]string{"", "Padded nodes", fmt.Sprintf("%d", len(sc.Nodes)/bvh.NodeFloats)})
	table.Append([]string{"", "Node texture", fmt.Sprintf("%dx%d", sc.NodeTexSide, sc.NodeTexSide)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(sc.Vertices, sc.Nodes), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
