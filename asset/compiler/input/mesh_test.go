package input

import (
	"testing"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/go-gl/mathgl/mgl32"
)

func testMesh() *Mesh {
	m := NewMesh("tri")
	m.Primitives = append(m.Primitives, &Primitive{
		Vertices: [3]types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
	})
	m.Primitives = append(m.Primitives, &Primitive{
		Vertices: [3]types.Vec3{{-1, 2, 0}, {1, 0, 3}, {0, 1, -4}},
	})
	return m
}

func TestMeshBBox(t *testing.T) {
	m := testMesh()
	bbox := m.BBox()

	expMin := types.Vec3{-1, 0, -4}
	expMax := types.Vec3{1, 2, 3}
	if bbox[0] != expMin || bbox[1] != expMax {
		t.Fatalf("expected bbox to be [%v, %v]; got [%v, %v]", expMin, expMax, bbox[0], bbox[1])
	}

	m.Primitives = append(m.Primitives, &Primitive{
		Vertices: [3]types.Vec3{{10, 0, 0}, {1, 0, 0}, {0, 1, 0}},
	})
	if bbox = m.BBox(); bbox[1][0] != 1 {
		t.Fatalf("expected cached bbox until marked dirty; got max x %f", bbox[1][0])
	}
	m.MarkBBoxDirty()
	if bbox = m.BBox(); bbox[1][0] != 10 {
		t.Fatalf("expected bbox max x to be 10; got %f", bbox[1][0])
	}
}

func TestSceneCoords(t *testing.T) {
	sc := NewScene()
	sc.Meshes = append(sc.Meshes, testMesh())
	sc.MeshInstances = append(sc.MeshInstances,
		&MeshInstance{MeshIndex: 0, Transform: mgl32.Ident4()},
		&MeshInstance{MeshIndex: 0, Transform: mgl32.Translate3D(0, 0, 5)},
	)

	if sc.TriangleCount() != 4 {
		t.Fatalf("expected 4 triangles; got %d", sc.TriangleCount())
	}

	coords := sc.Coords()
	if len(coords) != 36 {
		t.Fatalf("expected 36 coords; got %d", len(coords))
	}

	expFirst := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	for i, exp := range expFirst {
		if coords[i] != exp {
			t.Fatalf("expected coord %d to be %f; got %f", i, exp, coords[i])
		}
	}

	// Third triangle is the translated copy of the first
	expThird := []float32{0, 0, 5, 1, 0, 5, 0, 1, 5}
	for i, exp := range expThird {
		if coords[18+i] != exp {
			t.Fatalf("expected coord %d to be %f; got %f", 18+i, exp, coords[18+i])
		}
	}
}
