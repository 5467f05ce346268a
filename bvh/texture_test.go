package bvh

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/pkg/errors"
)

func TestNodeTextureSide(t *testing.T) {
	type spec struct {
		nodes   int
		expSide int
	}
	specs := []spec{
		{1, 2},   // 3 texels -> ceil(sqrt(3)) = 2
		{2, 4},   // 6 texels -> 3 -> 4
		{3, 4},   // 9 texels -> 3 -> 4
		{6, 8},   // 18 texels -> 5 -> 8
		{21, 8},  // 63 texels -> 8
		{22, 16}, // 66 texels -> 9 -> 16
	}

	for idx, s := range specs {
		if got := NodeTextureSide(s.nodes); got != s.expSide {
			t.Fatalf("[spec %d] expected side %d for %d nodes; got %d", idx, s.expSide, s.nodes, got)
		}
	}
}

func TestToTextureBuffer(t *testing.T) {
	tree, err := Build(meshAt(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(10, 0, 0)))
	if err != nil {
		t.Fatal(err)
	}
	orig := append([]Node(nil), tree.Nodes()...)

	data, side, err := tree.ToTextureBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if side != 4 {
		t.Fatalf("expected texture side 4; got %d", side)
	}
	if len(data) != side*side*NodeFloats {
		t.Fatalf("expected %d floats; got %d", side*side*NodeFloats, len(data))
	}
	if tree.NodeCount() != len(orig) || len(tree.Nodes()) != len(orig) {
		t.Fatalf("expected the tree to keep its %d nodes; got %d (%d reachable)", len(orig), len(tree.Nodes()), tree.NodeCount())
	}
	if tree.Stats().NodeTexSide != side {
		t.Fatalf("expected stats to record texture side %d; got %d", side, tree.Stats().NodeTexSide)
	}

	// Root texels
	expRoot := []float32{float32(RightLeaf), 1, 2, 0, 0, 0, 11, 1, 0}
	for idx, exp := range expRoot {
		if data[idx] != exp {
			t.Fatalf("expected root float %d to be %v; got %v", idx, exp, data[idx])
		}
	}

	nodes, err := DecodeNodes(data)
	if err != nil {
		t.Fatal(err)
	}
	for idx, node := range nodes {
		exp := DefaultNode()
		if idx < len(orig) {
			exp = orig[idx]
		}
		if node != exp {
			t.Fatalf("expected decoded node %d to be %v; got %v", idx, exp, node)
		}
	}

	// Repeated serialization yields the same layout
	data2, side2, err := tree.ToTextureBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if side2 != side || len(data2) != len(data) {
		t.Fatalf("expected repeated serialization to return side %d and %d floats; got %d and %d", side, len(data), side2, len(data2))
	}

	// The padded tree is still queryable
	closest := float32(math.MaxFloat32)
	if hit, ok := tree.TraverseStack(types.XYZ(10.2, 0.2, -1), types.XYZ(0, 0, 1), &closest); !ok || hit.Triangle != 2 {
		t.Fatalf("expected padded tree to report a hit on triangle 2; got %+v (hit %t)", hit, ok)
	}
}

func TestNodeBufferRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	coords := randomSoup(rng, 200, 25)
	tree, err := Build(coords)
	if err != nil {
		t.Fatal(err)
	}
	orig := append([]Node(nil), tree.Nodes()...)

	data, _, err := tree.ToTextureBuffer()
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := DecodeNodes(data)
	if err != nil {
		t.Fatal(err)
	}

	reencoded := EncodeNodes(nodes)
	for idx := range data {
		if math.Float32bits(data[idx]) != math.Float32bits(reencoded[idx]) {
			t.Fatalf("expected float %d to round-trip bit for bit; got %v vs %v", idx, data[idx], reencoded[idx])
		}
	}
	for idx := range orig {
		if nodes[idx] != orig[idx] {
			t.Fatalf("expected node %d to be %v; got %v", idx, orig[idx], nodes[idx])
		}
	}

	// Rebuild a tree from the serialized buffers and compare query results
	loaded, err := NewTree(coords, nodes)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.NodeCount() != len(orig) {
		t.Fatalf("expected loaded tree to have %d nodes; got %d", len(orig), loaded.NodeCount())
	}
	if loaded.Stats().MaxDepth != tree.Stats().MaxDepth || loaded.Stats().LeafRefs != tree.Stats().LeafRefs {
		t.Fatalf("expected loaded stats %+v to match built stats %+v", loaded.Stats(), tree.Stats())
	}

	for i := 0; i < 200; i++ {
		origin := types.XYZ(rng.Float32()*25, rng.Float32()*25, -10)
		dir := types.XYZ(rng.Float32()-0.5, rng.Float32()-0.5, 1)
		for _, mode := range allModes {
			expClosest := float32(math.MaxFloat32)
			expHit, expOk := tree.TraverseFunc(mode)(origin, dir, &expClosest)
			closest := float32(math.MaxFloat32)
			hit, ok := loaded.TraverseFunc(mode)(origin, dir, &closest)
			if hit != expHit || ok != expOk {
				t.Fatalf("[ray %d %s] expected %+v (%t); got %+v (%t)", i, mode, expHit, expOk, hit, ok)
			}
		}
	}
}

func TestDecodeNodesErrors(t *testing.T) {
	if _, err := DecodeNodes(make([]float32, NodeFloats+1)); errors.Cause(err) != ErrInvalidNodeBuffer {
		t.Fatalf("expected ErrInvalidNodeBuffer for truncated buffer; got %v", err)
	}

	data := EncodeNodes([]Node{DefaultNode()})
	data[1] = 0.5
	if _, err := DecodeNodes(data); errors.Cause(err) != ErrInvalidNodeBuffer {
		t.Fatalf("expected ErrInvalidNodeBuffer for fractional index; got %v", err)
	}
}

func TestNewTreeValidation(t *testing.T) {
	coords := meshAt(types.XYZ(0, 0, 0), types.XYZ(5, 0, 0), types.XYZ(10, 0, 0))

	type spec struct {
		descr string
		nodes []Node
	}
	specs := []spec{
		{"no nodes", nil},
		{"dangling triangle", []Node{{ChildKind: BothLeaves, Left: 0, Right: 3}}},
		{"dangling node", []Node{{ChildKind: LeftLeaf, Left: 0, Right: 4}, DefaultNode()}},
		{"cycle to root", []Node{{ChildKind: LeftLeaf, Left: 0, Right: 0}}},
		{"unknown kind", []Node{{ChildKind: 7, Left: 0, Right: 1}}},
		{"padding reference", []Node{{ChildKind: LeftLeaf, Left: 0, Right: 1}, DefaultNode()}},
	}

	for idx, s := range specs {
		if _, err := NewTree(coords, s.nodes); errors.Cause(err) != ErrInvalidNodeBuffer {
			t.Fatalf("[spec %d] %s: expected ErrInvalidNodeBuffer; got %v", idx, s.descr, err)
		}
	}

	if _, err := NewTree(coords[:5], []Node{DefaultNode()}); errors.Cause(err) != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for malformed coordinates; got %v", err)
	}
}

func TestVertexTexture(t *testing.T) {
	coords := triangleAt(types.XYZ(1, 2, 3))
	data, side := VertexTexture(coords)

	// 3 vertices -> ceil(sqrt(3)) = 2
	if side != 2 {
		t.Fatalf("expected side 2; got %d", side)
	}
	if len(data) != side*side*TexelComponents {
		t.Fatalf("expected %d floats; got %d", side*side*TexelComponents, len(data))
	}
	for idx, v := range coords {
		if data[idx] != v {
			t.Fatalf("expected float %d to be %v; got %v", idx, v, data[idx])
		}
	}
	for idx := len(coords); idx < len(data); idx++ {
		if data[idx] != 0 {
			t.Fatalf("expected padding float %d to be zero; got %v", idx, data[idx])
		}
	}
}

func TestStatsTable(t *testing.T) {
	tree, err := Build(meshAt(types.XYZ(0, 0, 0), types.XYZ(5, 0, 0), types.XYZ(10, 0, 0)))
	if err != nil {
		t.Fatal(err)
	}
	table := tree.Stats().String()
	for _, exp := range []string{"Triangles", "Max depth", "Node texture", "4x4"} {
		if !strings.Contains(table, exp) {
			t.Fatalf("expected stats table to contain %q; got:\n%s", exp, table)
		}
	}
}

func TestTextureIndexLimits(t *testing.T) {
	type spec struct {
		nodes     int
		triangles int
		expErr    bool
	}

	specs := []spec{
		{1, 1, false},
		{MaxTextureIndex, MaxTextureIndex, false},
		{MaxTextureIndex + 1, 1, true},
		{1, MaxTextureIndex + 1, true},
	}

	for specIndex, s := range specs {
		err := checkTextureIndices(s.nodes, s.triangles)
		if s.expErr && errors.Cause(err) != ErrInvalidNodeBuffer {
			t.Fatalf("[spec %d] expected to get ErrInvalidNodeBuffer; got %v", specIndex, err)
		}
		if !s.expErr && err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", specIndex, err)
		}
	}
}

func TestToTextureBufferDuringTraversal(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tree, err := Build(randomSoup(rng, 100, 20))
	if err != nil {
		t.Fatal(err)
	}
	nodeLen := len(tree.Nodes())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			closest := float32(math.MaxFloat32)
			tree.TraverseStack(types.XYZ(0, 0, -50), types.XYZ(0, 0, 1), &closest)
		}
	}()

	for i := 0; i < 10; i++ {
		if _, _, err := tree.ToTextureBuffer(); err != nil {
			t.Fatal(err)
		}
	}
	<-done

	if len(tree.Nodes()) != nodeLen {
		t.Fatalf("expected serialization to leave %d nodes in the tree; got %d", nodeLen, len(tree.Nodes()))
	}
}
