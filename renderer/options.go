package renderer

import "github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Tree traversal algorithm for primary rays.
	Traversal bvh.TraversalMode

	// Maximum render distance. Values <= 0 select an unbounded distance.
	MaxDistance float32
}
