package renderer

import (
	"context"
	"image"
	"time"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/log"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/tracer"
	"github.com/pkg/errors"
)

// A renderer that splits each frame into row blocks and traces them in
// parallel using a pool of tracers.
type defaultRenderer struct {
	logger log.Logger

	tracers   []tracer.Tracer
	scheduler tracer.BlockScheduler
	options   Options

	frame  *image.RGBA
	camera *tracer.Camera

	// Block heights assigned to each tracer for the last frame.
	blockAssignments []uint32

	// Channels for receiving block completions and errors.
	doneChan chan uint32
	errChan  chan error

	stats FrameStats
}

// Create a new renderer for tree using the specified block scheduler and
// tracers. The renderer takes ownership of the tracers and closes them when
// it is closed.
func NewDefault(tree *bvh.Tree, camera *tracer.Camera, scheduler tracer.BlockScheduler, tracers []tracer.Tracer, opts Options) (Renderer, error) {
	r, err := newDefaultRenderer(tree, camera, scheduler, tracers, opts)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newDefaultRenderer(tree *bvh.Tree, camera *tracer.Camera, scheduler tracer.BlockScheduler, tracers []tracer.Tracer, opts Options) (*defaultRenderer, error) {
	if len(tracers) == 0 {
		return nil, ErrNoTracers
	}
	if tree == nil {
		return nil, ErrSceneNotDefined
	}
	if camera == nil {
		return nil, ErrCameraNotDefined
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, errors.Wrapf(ErrInvalidFrameSize, "%dx%d", opts.FrameW, opts.FrameH)
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		tracers:   tracers,
		scheduler: scheduler,
		options:   opts,
		frame:     image.NewRGBA(image.Rect(0, 0, int(opts.FrameW), int(opts.FrameH))),
		camera:    camera,
		doneChan:  make(chan uint32, len(tracers)),
		errChan:   make(chan error, len(tracers)),
	}

	for _, tr := range tracers {
		if err := tr.Init(r.frame); err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "renderer: could not init tracer %s", tr.Id())
		}
		tr.Update(tracer.UpdateScene, tree)
	}
	r.UpdateCamera()

	r.logger.Infof("attached %d tracers; frame size %dx%d", len(tracers), opts.FrameW, opts.FrameH)
	return r, nil
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Get the rendered frame.
func (r *defaultRenderer) Frame() *image.RGBA {
	return r.frame
}

// Get the last frame statistics.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Get the renderer camera.
func (r *defaultRenderer) Camera() *tracer.Camera {
	return r.camera
}

// Push the current camera state to all tracers. Each tracer keeps its own
// copy so the camera may be modified while a frame is being rendered.
func (r *defaultRenderer) UpdateCamera() {
	for _, tr := range r.tracers {
		cam := *r.camera
		tr.Update(tracer.UpdateCamera, &cam)
	}
}

// Render a single frame.
func (r *defaultRenderer) Render(ctx context.Context) error {
	if len(r.tracers) == 0 {
		return ErrNoTracers
	}

	start := time.Now()
	err := r.renderFrame(ctx)
	if err != nil {
		return err
	}
	r.logger.Debugf("rendered frame in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Assign blocks to tracers and wait for all of them to complete.
func (r *defaultRenderer) renderFrame(ctx context.Context) error {
	start := time.Now()
	r.blockAssignments = r.scheduler.Schedule(r.tracers, r.options.FrameH)

	var blockY uint32 = 0
	pending := 0
	for idx, tr := range r.tracers {
		blockH := r.blockAssignments[idx]
		if blockH == 0 {
			continue
		}

		tr.Enqueue(tracer.BlockRequest{
			FrameW:      r.options.FrameW,
			FrameH:      r.options.FrameH,
			BlockY:      blockY,
			BlockH:      blockH,
			Traversal:   r.options.Traversal,
			MaxDistance: r.options.MaxDistance,
			DoneChan:    r.doneChan,
			ErrChan:     r.errChan,
		})
		blockY += blockH
		pending++
	}

	// Wait for all tracers to finish, even on errors, so that no tracer
	// writes to the frame after we return.
	var firstErr error
	interrupted := false
	for pending > 0 {
		select {
		case <-r.doneChan:
			pending--
		case err := <-r.errChan:
			pending--
			if firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			if !interrupted {
				interrupted = true
				r.logger.Warning("interrupt received; waiting for in-flight blocks")
			}
			ctx = context.Background()
		}
	}

	switch {
	case firstErr != nil:
		return firstErr
	case interrupted:
		return ErrInterrupted
	}

	r.collectStats(time.Since(start))
	return nil
}

func (r *defaultRenderer) collectStats(renderTime time.Duration) {
	r.stats.RenderTime = renderTime
	r.stats.Tracers = make([]TracerStat, 0, len(r.tracers))
	for idx, tr := range r.tracers {
		stat := TracerStat{
			Id:           tr.Id(),
			BlockH:       r.blockAssignments[idx],
			FramePercent: 100 * float32(r.blockAssignments[idx]) / float32(r.options.FrameH),
		}
		if stat.BlockH != 0 {
			trStats := tr.Stats()
			stat.RenderTime = trStats.RenderTime
			stat.Rays = trStats.Rays
			stat.Hits = trStats.Hits
		}
		r.stats.Tracers = append(r.stats.Tracers, stat)
	}
}
