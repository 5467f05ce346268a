package bvh

import "github.com/KorolevSoftware/OpenGLRayCastingCore/types"

const (
	// Number of floats that describe a triangle in the input list.
	FloatsPerTriangle = 9

	// Rays whose determinant magnitude falls below this value are treated
	// as parallel to the triangle plane.
	detEpsilon float32 = 1e-4
)

// Triangle is a mesh primitive. Its center and bounding box are derived
// once at construction time.
type Triangle struct {
	vertices [3]types.Vec3
	index    int32
	center   types.Vec3
	aabb     AABB
}

// Create a triangle with the given vertices and its index in the input list.
func NewTriangle(v0, v1, v2 types.Vec3, index int32) Triangle {
	sum := v0.Add(v1).Add(v2)
	return Triangle{
		vertices: [3]types.Vec3{v0, v1, v2},
		index:    index,
		center:   types.Vec3{sum[0] / 3, sum[1] / 3, sum[2] / 3},
		aabb:     BoundPoints(v0, v1, v2),
	}
}

// Get triangle vertices in input order.
func (t *Triangle) Vertices() [3]types.Vec3 {
	return t.vertices
}

// Get the triangle index in the input list.
func (t *Triangle) Index() int32 {
	return t.index
}

// Get the arithmetic mean of the triangle vertices.
func (t *Triangle) Center() types.Vec3 {
	return t.center
}

// Get the triangle bounding box.
func (t *Triangle) AABB() AABB {
	return t.aabb
}

// Get the flat geometric normal defined by the vertex winding.
func (t *Triangle) Normal() types.Vec3 {
	e1 := t.vertices[1].Sub(t.vertices[0])
	e2 := t.vertices[2].Sub(t.vertices[0])
	return e1.Cross(e2).Normalize()
}

// Intersects runs a Möller–Trumbore test of the ray against the triangle.
//
// A hit is only accepted if its distance is strictly positive and strictly
// less than *closest. On accept, *closest is updated to the hit distance and
// the flat triangle normal is returned. Distances are expressed in units of
// the direction vector length.
func (t *Triangle) Intersects(origin, dir types.Vec3, closest *float32) (types.Vec3, bool) {
	e1 := t.vertices[1].Sub(t.vertices[0])
	e2 := t.vertices[2].Sub(t.vertices[0])
	p := dir.Cross(e2)
	det := e1.Dot(p)

	if det > -detEpsilon && det < detEpsilon {
		return types.Vec3{}, false
	}

	invDet := 1.0 / det
	tv := origin.Sub(t.vertices[0])
	u := tv.Dot(p) * invDet
	if u < 0 || u > 1 {
		return types.Vec3{}, false
	}

	q := tv.Cross(e1)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return types.Vec3{}, false
	}

	dist := e2.Dot(q) * invDet
	if !(dist > 0 && dist < *closest) {
		return types.Vec3{}, false
	}

	*closest = dist
	return e1.Cross(e2).Normalize(), true
}
