package renderer

import (
	"context"
	"image"
)

type Renderer interface {
	// Render frame. Interactive renderers keep rendering until their
	// window is closed.
	Render(ctx context.Context) error

	// Get the rendered frame.
	Frame() *image.RGBA

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}
