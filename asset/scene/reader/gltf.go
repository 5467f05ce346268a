package reader

import (
	"os"
	"time"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/compiler/input"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/log"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type gltfSceneReader struct {
	logger log.Logger

	doc      *gltf.Document
	rawScene *input.Scene

	// A map of glTF mesh indices to parsed mesh indices.
	meshIndex map[uint32]int
}

// Create a new glTF/GLB scene reader.
func newGLTFReader() *gltfSceneReader {
	return &gltfSceneReader{
		logger:    log.New("gltf scene reader"),
		rawScene:  input.NewScene(),
		meshIndex: make(map[uint32]int),
	}
}

// Read scene geometry. Every triangle primitive referenced by the node
// hierarchy of the default scene is emitted with its world transformation.
// Documents without scenes emit each mesh once with an identity transform.
func (r *gltfSceneReader) ReadMesh(sceneRes *asset.Resource) (*input.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	var err error
	r.doc, err = r.decode(sceneRes)
	if err != nil {
		return nil, errors.Wrapf(err, "gltfSceneReader: failed to read %s", sceneRes.Path())
	}

	if sceneNodes := r.sceneNodes(); sceneNodes != nil {
		for _, nodeIndex := range sceneNodes {
			if err = r.visitNode(nodeIndex, mgl32.Ident4(), 0); err != nil {
				return nil, err
			}
		}
	} else {
		for meshIndex := range r.doc.Meshes {
			if err = r.addInstance(uint32(meshIndex), mgl32.Ident4()); err != nil {
				return nil, err
			}
		}
	}

	r.logger.Noticef(
		"parsed %d meshes (%d triangles) in %d ms",
		len(r.rawScene.Meshes), r.rawScene.TriangleCount(),
		time.Since(start).Nanoseconds()/1e6,
	)
	return r.rawScene, nil
}

// Decode the document. Local files are opened by path so that external
// buffers can be resolved relative to the document.
func (r *gltfSceneReader) decode(res *asset.Resource) (*gltf.Document, error) {
	if !res.IsRemote() {
		if _, err := os.Stat(res.Path()); err == nil {
			return gltf.Open(res.Path())
		}
	}

	doc := &gltf.Document{}
	if err := gltf.NewDecoder(res).Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get the root nodes of the default scene or nil if the document defines
// no scenes.
func (r *gltfSceneReader) sceneNodes() []uint32 {
	if len(r.doc.Scenes) == 0 {
		return nil
	}

	sceneIndex := uint32(0)
	if r.doc.Scene != nil && int(*r.doc.Scene) < len(r.doc.Scenes) {
		sceneIndex = *r.doc.Scene
	}
	return r.doc.Scenes[sceneIndex].Nodes
}

// Walk the node hierarchy accumulating node transformations.
func (r *gltfSceneReader) visitNode(nodeIndex uint32, parent mgl32.Mat4, depth int) error {
	if int(nodeIndex) >= len(r.doc.Nodes) {
		return errors.Errorf("gltfSceneReader: node index %d out of bounds", nodeIndex)
	}
	if depth > len(r.doc.Nodes) {
		return errors.Errorf("gltfSceneReader: node hierarchy contains a cycle at node %d", nodeIndex)
	}

	node := r.doc.Nodes[nodeIndex]
	world := parent.Mul4(nodeTransform(node))
	if node.Mesh != nil {
		if err := r.addInstance(*node.Mesh, world); err != nil {
			return err
		}
	}

	for _, child := range node.Children {
		if err := r.visitNode(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Get the local transformation of a node. A matrix other than the zero or
// identity matrix takes precedence over the TRS properties.
func nodeTransform(node *gltf.Node) mgl32.Mat4 {
	if node.Matrix != [16]float32{} && node.Matrix != [16]float32(mgl32.Ident4()) {
		return mgl32.Mat4(node.Matrix)
	}

	scale := node.Scale
	if scale == [3]float32{} {
		scale = [3]float32{1, 1, 1}
	}
	rot := mgl32.QuatIdent()
	if node.Rotation != [4]float32{} {
		rot = mgl32.Quat{
			W: node.Rotation[3],
			V: mgl32.Vec3{node.Rotation[0], node.Rotation[1], node.Rotation[2]},
		}.Normalize()
	}

	return mgl32.Translate3D(node.Translation[0], node.Translation[1], node.Translation[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// Append an instance of a glTF mesh, parsing the mesh on first use.
func (r *gltfSceneReader) addInstance(gltfMeshIndex uint32, transform mgl32.Mat4) error {
	meshIndex, parsed := r.meshIndex[gltfMeshIndex]
	if !parsed {
		if int(gltfMeshIndex) >= len(r.doc.Meshes) {
			return errors.Errorf("gltfSceneReader: mesh index %d out of bounds", gltfMeshIndex)
		}

		mesh, err := r.parseMesh(r.doc.Meshes[gltfMeshIndex])
		if err != nil {
			return err
		}

		meshIndex = -1
		if len(mesh.Primitives) == 0 {
			r.logger.Warningf(`dropping mesh "%s" as it contains no triangles`, mesh.Name)
		} else {
			r.rawScene.Meshes = append(r.rawScene.Meshes, mesh)
			meshIndex = len(r.rawScene.Meshes) - 1
		}
		r.meshIndex[gltfMeshIndex] = meshIndex
	}

	if meshIndex < 0 {
		return nil
	}
	r.rawScene.MeshInstances = append(r.rawScene.MeshInstances, &input.MeshInstance{
		MeshIndex: uint32(meshIndex),
		Transform: transform,
	})
	return nil
}

// Convert all triangle primitives of a glTF mesh.
func (r *gltfSceneReader) parseMesh(gltfMesh *gltf.Mesh) (*input.Mesh, error) {
	mesh := input.NewMesh(gltfMesh.Name)
	for primIndex, primitive := range gltfMesh.Primitives {
		switch primitive.Mode {
		case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
		default:
			r.logger.Warningf(`skipping primitive %d of mesh "%s" with unsupported mode %v`, primIndex, gltfMesh.Name, primitive.Mode)
			continue
		}

		posAccessor, exists := primitive.Attributes["POSITION"]
		if !exists || int(posAccessor) >= len(r.doc.Accessors) {
			r.logger.Warningf(`skipping primitive %d of mesh "%s" without positions`, primIndex, gltfMesh.Name)
			continue
		}

		positions, err := modeler.ReadPosition(r.doc, r.doc.Accessors[posAccessor], nil)
		if err != nil {
			return nil, errors.Wrapf(err, `gltfSceneReader: failed to read positions of mesh "%s"`, gltfMesh.Name)
		}

		var indices []uint32
		if primitive.Indices != nil {
			if int(*primitive.Indices) >= len(r.doc.Accessors) {
				return nil, errors.Errorf(`gltfSceneReader: mesh "%s" references unknown index accessor %d`, gltfMesh.Name, *primitive.Indices)
			}
			indices, err = modeler.ReadIndices(r.doc, r.doc.Accessors[*primitive.Indices], nil)
			if err != nil {
				return nil, errors.Wrapf(err, `gltfSceneReader: failed to read indices of mesh "%s"`, gltfMesh.Name)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for _, tri := range assembleTriangles(primitive.Mode, indices) {
			var prim input.Primitive
			for i, index := range tri {
				if int(index) >= len(positions) {
					return nil, errors.Errorf(`gltfSceneReader: mesh "%s" index %d out of bounds`, gltfMesh.Name, index)
				}
				prim.Vertices[i] = types.Vec3(positions[index])
			}
			mesh.Primitives = append(mesh.Primitives, &prim)
		}
	}
	mesh.MarkBBoxDirty()
	return mesh, nil
}

// Group an index list into triangles according to the primitive mode.
// Trailing indices that do not form a complete triangle are ignored.
func assembleTriangles(mode gltf.PrimitiveMode, indices []uint32) [][3]uint32 {
	var tris [][3]uint32
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 2; i < len(indices); i++ {
			if i%2 == 0 {
				tris = append(tris, [3]uint32{indices[i-2], indices[i-1], indices[i]})
			} else {
				tris = append(tris, [3]uint32{indices[i-1], indices[i-2], indices[i]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 2; i < len(indices); i++ {
			tris = append(tris, [3]uint32{indices[0], indices[i-1], indices[i]})
		}
	default:
		for i := 0; i+2 < len(indices); i += 3 {
			tris = append(tris, [3]uint32{indices[i], indices[i+1], indices[i+2]})
		}
	}
	return tris
}
