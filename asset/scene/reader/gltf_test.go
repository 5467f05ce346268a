package reader

import (
	"bytes"
	"testing"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/compiler/input"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func quadDocument() *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2, 1, 3, 2})

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "quad",
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(idx),
				Attributes: gltf.Attribute{"POSITION": pos},
			},
			{
				Mode:       gltf.PrimitivePoints,
				Attributes: gltf.Attribute{"POSITION": pos},
			},
		},
	})
	return doc
}

func readGLTF(t *testing.T, doc *gltf.Document) *input.Scene {
	t.Helper()

	var buf bytes.Buffer
	encoder := gltf.NewEncoder(&buf)
	encoder.AsBinary = true
	if err := encoder.Encode(doc); err != nil {
		t.Fatal(err)
	}

	res := asset.NewResourceFromStream("scene.glb", &buf)
	defer res.Close()
	sc, err := newGLTFReader().ReadMesh(res)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestGLTFNodeHierarchy(t *testing.T) {
	doc := quadDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "moved", Mesh: gltf.Index(0), Translation: [3]float32{0, 0, 5}},
		{Name: "scaled", Scale: [3]float32{2, 2, 2}, Children: []uint32{2}},
		{Name: "child", Mesh: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []uint32{0, 1}

	sc := readGLTF(t, doc)
	if len(sc.Meshes) != 1 {
		t.Fatalf("expected mesh to be parsed once; got %d meshes", len(sc.Meshes))
	}
	if len(sc.MeshInstances) != 2 {
		t.Fatalf("expected 2 instances; got %d", len(sc.MeshInstances))
	}
	if sc.TriangleCount() != 4 {
		t.Fatalf("expected 4 triangles; got %d", sc.TriangleCount())
	}

	coords := sc.Coords()
	expFirst := []float32{0, 0, 5, 1, 0, 5, 0, 1, 5}
	expThird := []float32{0, 0, 0, 2, 0, 0, 0, 2, 0}
	for i := range expFirst {
		if coords[i] != expFirst[i] {
			t.Fatalf("expected coord %d to be %f; got %f", i, expFirst[i], coords[i])
		}
		if coords[18+i] != expThird[i] {
			t.Fatalf("expected coord %d to be %f; got %f", 18+i, expThird[i], coords[18+i])
		}
	}
}

func TestGLTFWithoutScenes(t *testing.T) {
	doc := quadDocument()
	doc.Scene = nil
	doc.Scenes = nil

	sc := readGLTF(t, doc)
	if len(sc.MeshInstances) != 1 {
		t.Fatalf("expected a single instance; got %d", len(sc.MeshInstances))
	}
	if sc.Meshes[0].Name != "quad" {
		t.Fatalf("expected mesh name %q; got %q", "quad", sc.Meshes[0].Name)
	}
	if sc.TriangleCount() != 2 {
		t.Fatalf("expected 2 triangles; got %d", sc.TriangleCount())
	}
}

func TestAssembleTriangles(t *testing.T) {
	type spec struct {
		mode gltf.PrimitiveMode
		exp  [][3]uint32
	}

	indices := []uint32{0, 1, 2, 3, 4}
	specs := []spec{
		{gltf.PrimitiveTriangles, [][3]uint32{{0, 1, 2}}},
		{gltf.PrimitiveTriangleStrip, [][3]uint32{{0, 1, 2}, {2, 1, 3}, {2, 3, 4}}},
		{gltf.PrimitiveTriangleFan, [][3]uint32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}},
	}

	for specIndex, s := range specs {
		tris := assembleTriangles(s.mode, indices)
		if len(tris) != len(s.exp) {
			t.Fatalf("[spec %d] expected %d triangles; got %d", specIndex, len(s.exp), len(tris))
		}
		for i := range tris {
			if tris[i] != s.exp[i] {
				t.Fatalf("[spec %d] expected triangle %d to be %v; got %v", specIndex, i, s.exp[i], tris[i])
			}
		}
	}
}
