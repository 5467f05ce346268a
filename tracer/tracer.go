package tracer

import (
	"image"
	"time"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
)

type UpdateType uint8

const (
	// Replace the traced BVH; payload is a *bvh.Tree.
	UpdateScene UpdateType = iota

	// Replace the camera; payload is a *Camera.
	UpdateCamera
)

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Frame dimensions.
	FrameW uint32
	FrameH uint32

	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// The tree traversal algorithm used for primary rays.
	Traversal bvh.TraversalMode

	// The maximum ray distance. Values <= 0 select an unbounded distance.
	MaxDistance float32

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics.
type Stats struct {
	// The rendered block height
	BlockH uint32

	// The time for rendering this block.
	RenderTime time.Duration

	// The time for applying pending updates.
	UpdateTime time.Duration

	// Traced rays and accepted hits.
	Rays uint64
	Hits uint64
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get the tracer's relative computation speed estimate.
	Speed() uint32

	// Initialize the tracer. Blocks are written to the supplied frame.
	Init(frame *image.RGBA) error

	// Shutdown and cleanup tracer.
	Close()

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Append a change to the tracer's update buffer. Changes are applied
	// before processing the next block request.
	Update(UpdateType, interface{})

	// Retrieve last frame statistics.
	Stats() *Stats
}
