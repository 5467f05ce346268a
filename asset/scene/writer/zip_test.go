package writer

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"path/filepath"
	"testing"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/scene"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
)

func testScene(t *testing.T) *scene.Scene {
	coords := []float32{
		0, 0, 0, 1, 0, 0, 0, 1, 0,
		5, 0, 0, 6, 0, 0, 5, 1, 0,
	}
	tree, err := bvh.Build(coords)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := scene.New("pair", coords, tree)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestEncodeScene(t *testing.T) {
	sc := testScene(t)

	var buf bytes.Buffer
	if err := encodeScene(&buf, sc); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != dataFile {
		t.Fatalf("expected archive to contain only %s", dataFile)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	var decoded scene.Scene
	if err = gob.NewDecoder(rc).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Name != sc.Name || len(decoded.Nodes) != len(sc.Nodes) || len(decoded.Vertices) != len(sc.Vertices) {
		t.Fatalf("expected decoded scene to match; got %+v", decoded)
	}
}

func TestWriteSceneToInvalidPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "scene.zip")
	if err := WriteScene(testScene(t), path); err == nil {
		t.Fatal("expected an error")
	}
}
