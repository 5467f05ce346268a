package input

import (
	"math"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/go-gl/mathgl/mgl32"
)

// A triangle primitive
type Primitive struct {
	Vertices [3]types.Vec3
}

// Get the primitive AABB.
func (prim *Primitive) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(prim.Vertices[0], types.MinVec3(prim.Vertices[1], prim.Vertices[2])),
		types.MaxVec3(prim.Vertices[0], types.MaxVec3(prim.Vertices[1], prim.Vertices[2])),
	}
}

// A mesh is constructed by a list of primitives.
type Mesh struct {
	Name       string
	Primitives []*Primitive

	bbox            [2]types.Vec3
	bboxNeedsUpdate bool
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:            name,
		Primitives:      make([]*Primitive, 0),
		bboxNeedsUpdate: true,
	}
}

// Mark the bbox of this mesh as dirty.
func (m *Mesh) MarkBBoxDirty() {
	m.bboxNeedsUpdate = true
}

// Get mesh bounding box.
func (m *Mesh) BBox() [2]types.Vec3 {
	if m.bboxNeedsUpdate {
		m.bbox = [2]types.Vec3{
			types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
			types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
		}

		for _, prim := range m.Primitives {
			primBBox := prim.BBox()
			m.bbox[0] = types.MinVec3(m.bbox[0], primBBox[0])
			m.bbox[1] = types.MaxVec3(m.bbox[1], primBBox[1])
		}

		m.bboxNeedsUpdate = false
	}

	return m.bbox
}

// A mesh instance applies a transformation to a particular Mesh.
type MeshInstance struct {
	MeshIndex uint32
	Transform mgl32.Mat4
}

// Camera settings.
type Camera struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
}

// The scene contains all elements that are processed by the scene compiler.
type Scene struct {
	Meshes        []*Mesh
	MeshInstances []*MeshInstance
	Camera        *Camera
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Meshes:        make([]*Mesh, 0),
		MeshInstances: make([]*MeshInstance, 0),
		Camera: &Camera{
			FOV:  90.0,
			Eye:  types.Vec3{0, 0.1, -20},
			Look: types.Vec3{0, 0.1, -19},
		},
	}
}

// Get the number of triangles emitted by all mesh instances.
func (sc *Scene) TriangleCount() int {
	count := 0
	for _, inst := range sc.MeshInstances {
		count += len(sc.Meshes[inst.MeshIndex].Primitives)
	}
	return count
}

// Flatten the scene into a triangle coordinate list with 9 floats per
// triangle. Each instance emits a transformed copy of its mesh primitives in
// instance order.
func (sc *Scene) Coords() []float32 {
	coords := make([]float32, 0, sc.TriangleCount()*9)
	for _, inst := range sc.MeshInstances {
		identity := inst.Transform == mgl32.Ident4()
		for _, prim := range sc.Meshes[inst.MeshIndex].Primitives {
			for _, v := range prim.Vertices {
				if !identity {
					v = types.Vec3(mgl32.TransformCoordinate(mgl32.Vec3(v), inst.Transform))
				}
				coords = append(coords, v[0], v[1], v[2])
			}
		}
	}
	return coords
}
