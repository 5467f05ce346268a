package reader

import (
	"path"
	"strings"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/compiler"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/compiler/input"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/scene"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned when no reader handles a file extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// The MeshReader interface is implemented by readers of uncompiled
// geometry formats.
type MeshReader interface {
	// Parse geometry from a resource.
	ReadMesh(*asset.Resource) (*input.Scene, error)
}

// Read scene from file. Geometry formats are compiled on the fly while
// compiled scene archives are loaded as-is.
func ReadScene(filename string) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	switch res.Ext() {
	case ".zip":
		reader = newZipSceneReader()
	default:
		meshReader, err := meshReaderFor(res)
		if err != nil {
			return nil, err
		}
		reader = &compilingReader{meshReader}
	}
	return reader.Read(res)
}

// Read uncompiled geometry from file.
func ReadMesh(filename string) (*input.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	meshReader, err := meshReaderFor(res)
	if err != nil {
		return nil, err
	}
	return meshReader.ReadMesh(res)
}

func meshReaderFor(res *asset.Resource) (MeshReader, error) {
	switch res.Ext() {
	case ".obj":
		return newWavefrontReader(), nil
	case ".gltf", ".glb":
		return newGLTFReader(), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "readScene: %q", res.Path())
}

// compilingReader adapts a MeshReader into a Reader.
type compilingReader struct {
	MeshReader
}

func (r *compilingReader) Read(res *asset.Resource) (*scene.Scene, error) {
	parsed, err := r.ReadMesh(res)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(sceneName(res), parsed)
}

// Get the scene name from the resource file name.
func sceneName(res *asset.Resource) string {
	base := path.Base(strings.Replace(res.Path(), `\`, `/`, -1))
	return strings.TrimSuffix(base, path.Ext(base))
}
