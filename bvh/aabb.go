package bvh

import "github.com/KorolevSoftware/OpenGLRayCastingCore/types"

// AABB is an axis-aligned bounding box. The zero value is a degenerate box
// located at the origin.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create a box that tightly bounds the given points.
func BoundPoints(p0 types.Vec3, points ...types.Vec3) AABB {
	box := AABB{Min: p0, Max: p0}
	for _, p := range points {
		box.Min = types.MinVec3(box.Min, p)
		box.Max = types.MaxVec3(box.Max, p)
	}
	return box
}

// Grow the box so that it also contains other.
func (b *AABB) Surround(other AABB) {
	b.Min = types.MinVec3(b.Min, other.Min)
	b.Max = types.MaxVec3(b.Max, other.Max)
}

// Returns true if other lies entirely inside (or on the boundary of) the box.
func (b AABB) Contains(other AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Intersects performs a slab test of the ray against the box.
//
// Rays whose origin lies strictly inside the box are always accepted. In all
// other cases the ray hits the box if the slab entry distance does not exceed
// the exit distance and the entry distance is strictly positive.
//
// The closest argument is not used to reject boxes that start beyond the
// current best hit; a positive result only means that the box may contain a
// closer hit.
func (b AABB) Intersects(origin, dir types.Vec3, closest float32) bool {
	if origin.AllGreater(b.Min) && origin.AllLess(b.Max) {
		return true
	}

	// Zero direction components yield ±Inf (or NaN) here; comparisons
	// against NaN are false so the ray degrades to a miss.
	t0 := b.Min.Sub(origin).Div(dir)
	t1 := b.Max.Sub(origin).Div(dir)

	var tmin, tmax types.Vec3
	for axis := 0; axis < 3; axis++ {
		tmin[axis] = minf(t0[axis], t1[axis])
		tmax[axis] = maxf(t0[axis], t1[axis])
	}

	entry := maxf(maxf(tmin[0], tmin[1]), tmin[2])
	exit := minf(minf(tmax[0], tmax[1]), tmax[2])
	if entry > exit {
		return false
	}

	return entry > 0
}

func minf(a, b float32) float32 {
	if b < a {
		return b
	}
	return a
}

func maxf(a, b float32) float32 {
	if a < b {
		return b
	}
	return a
}
