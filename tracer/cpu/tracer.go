package cpu

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/log"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/tracer"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/pkg/errors"
)

// The color of pixels whose primary ray misses the scene.
var MissColor = color.RGBA{R: 51, G: 77, B: 77, A: 255}

type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// Relative speed estimate used by the block schedulers.
	speed uint32

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[tracer.UpdateType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan tracer.BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered frame.
	stats *tracer.Stats

	// The frame that blocks are rendered into.
	frame *image.RGBA

	// Uploaded scene and camera.
	tree   *bvh.Tree
	camera tracer.Camera
	hasCam bool
}

// Create a new cpu tracer. Speed is the tracer's relative speed estimate and
// is clamped to at least 1.
func NewTracer(id string, speed uint32) tracer.Tracer {
	if speed == 0 {
		speed = 1
	}

	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		speed:        speed,
		blockReqChan: make(chan tracer.BlockRequest),
		updateBuffer: make(map[tracer.UpdateType]interface{}, 0),
		stats:        &tracer.Stats{},
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// Get the relative speed estimate.
func (tr *cpuTracer) Speed() uint32 {
	return tr.speed
}

// Initialize tracer and start its worker.
func (tr *cpuTracer) Init(frame *image.RGBA) error {
	tr.Lock()
	defer tr.Unlock()

	if frame == nil {
		return errors.Wrap(ErrNotInitialized, "nil frame")
	}
	tr.frame = frame

	// Start worker
	if tr.closeChan == nil {
		tr.startWorker()
	}
	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.closeChan = nil
		tr.wg.Wait()
	}

	tr.tree = nil
	tr.frame = nil
}

// Enqueue block request. The call blocks until the worker receives it.
func (tr *cpuTracer) Enqueue(blockReq tracer.BlockRequest) {
	tr.blockReqChan <- blockReq
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) Update(updateType tracer.UpdateType, data interface{}) {
	tr.Lock()
	defer tr.Unlock()
	tr.updateBuffer[updateType] = data
}

// Retrieve last frame statistics.
func (tr *cpuTracer) Stats() *tracer.Stats {
	return tr.stats
}

// Commit queued changes.
func (tr *cpuTracer) commitUpdates() error {
	tr.Lock()
	defer tr.Unlock()

	for updateType, data := range tr.updateBuffer {
		switch updateType {
		case tracer.UpdateScene:
			tree, ok := data.(*bvh.Tree)
			if !ok || tree == nil {
				return errors.Wrapf(ErrNoSceneData, "unexpected scene payload %T", data)
			}
			tr.tree = tree
		case tracer.UpdateCamera:
			cam, ok := data.(*tracer.Camera)
			if !ok || cam == nil {
				return errors.Wrapf(ErrNoCameraData, "unexpected camera payload %T", data)
			}
			// Keep a private copy so the caller can keep moving the camera
			tr.camera = *cam
			tr.hasCam = true
		default:
			return errors.Errorf("unsupported update type %d", updateType)
		}
	}

	tr.updateBuffer = make(map[tracer.UpdateType]interface{}, 0)
	return nil
}

// Spawn a go-routine to process block render requests.
func (tr *cpuTracer) startWorker() {
	tr.closeChan = make(chan struct{})
	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		var blockReq tracer.BlockRequest
		var startTime time.Time
		var err error
		close(readyChan)
		for {
			select {
			case blockReq = <-tr.blockReqChan:
				startTime = time.Now()

				// Apply any pending changes
				err = tr.commitUpdates()
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}
				tr.stats.UpdateTime = time.Since(startTime)

				// Render block and reply with our completion status
				startTime = time.Now()
				rays, hits, err := tr.renderBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				// Update stats
				tr.stats.BlockH = blockReq.BlockH
				tr.stats.RenderTime = time.Since(startTime)
				tr.stats.Rays = rays
				tr.stats.Hits = hits

				blockReq.DoneChan <- blockReq.BlockH
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Trace a primary ray for every pixel of the block.
func (tr *cpuTracer) renderBlock(blockReq *tracer.BlockRequest) (rays, hits uint64, err error) {
	if tr.tree == nil {
		return 0, 0, ErrNoSceneData
	}
	if !tr.hasCam {
		return 0, 0, ErrNoCameraData
	}

	bounds := tr.frame.Bounds()
	if blockReq.FrameW != uint32(bounds.Dx()) || blockReq.FrameH != uint32(bounds.Dy()) ||
		blockReq.BlockY+blockReq.BlockH > blockReq.FrameH {
		return 0, 0, errors.Wrapf(
			ErrBlockOutOfBounds,
			"block [%d, %d) of %dx%d frame; tracer frame is %dx%d",
			blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, blockReq.FrameW, blockReq.FrameH,
			bounds.Dx(), bounds.Dy(),
		)
	}

	maxDist := blockReq.MaxDistance
	if maxDist <= 0 {
		maxDist = math.MaxFloat32
	}
	traverse := tr.tree.TraverseFunc(blockReq.Traversal)

	for y := blockReq.BlockY; y < blockReq.BlockY+blockReq.BlockH; y++ {
		for x := uint32(0); x < blockReq.FrameW; x++ {
			origin, dir := tr.camera.Ray(x, y, blockReq.FrameW, blockReq.FrameH)
			closest := maxDist
			hit, ok := traverse(origin, dir, &closest)
			rays++

			px := MissColor
			if ok {
				hits++
				px = ShadeNormal(hit.Normal)
			}
			tr.frame.SetRGBA(bounds.Min.X+int(x), bounds.Min.Y+int(y), px)
		}
	}

	return rays, hits, nil
}

// Map a unit normal to a color using n * 0.5 + 0.5.
func ShadeNormal(n types.Vec3) color.RGBA {
	c := n.Mul(0.5).Add(types.Vec3{0.5, 0.5, 0.5})
	return color.RGBA{
		R: toByte(c[0]),
		G: toByte(c[1]),
		B: toByte(c[2]),
		A: 255,
	}
}

func toByte(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
