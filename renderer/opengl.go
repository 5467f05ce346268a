package renderer

import (
	"context"
	"math/rand"
	"runtime"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/tracer"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

const (
	// Height in pixels for stacked series widgets
	stackedSeriesHeight uint32 = 20
)

// Keys mapped to camera movement directions.
var moveKeys = map[glfw.Key]tracer.Direction{
	glfw.KeyW: tracer.Forward,
	glfw.KeyS: tracer.Backward,
	glfw.KeyA: tracer.Left,
	glfw.KeyD: tracer.Right,
	glfw.KeyQ: tracer.Up,
	glfw.KeyE: tracer.Down,
}

// An interactive opengl-based renderer. The cursor is captured by the
// window: mouse movement rotates the camera and the WASDQE keys move it.
type interactiveGLRenderer struct {
	*defaultRenderer

	// opengl handles
	window *glfw.Window
	texId  uint32
	texFbo uint32

	// state
	lastCursorPos [2]float64
	cursorTracked bool

	// Display options
	showUI                bool
	blockAssignmentSeries *stackedSeries
}

// Create a new interactive opengl renderer using the specified block
// scheduler and tracers. The renderer must be created and used from the
// main go-routine.
func NewInteractive(tree *bvh.Tree, camera *tracer.Camera, scheduler tracer.BlockScheduler, tracers []tracer.Tracer, opts Options) (Renderer, error) {
	base, err := newDefaultRenderer(tree, camera, scheduler, tracers, opts)
	if err != nil {
		return nil, err
	}

	r := &interactiveGLRenderer{
		defaultRenderer: base,
	}

	runtime.LockOSThread()
	err = r.initGL(opts)
	if err != nil {
		r.Close()
		return nil, err
	}

	r.initUI()
	return r, nil
}

func (r *interactiveGLRenderer) Close() {
	if r.window != nil {
		r.window.Destroy()
		r.window = nil
		glfw.Terminate()
	}
	r.defaultRenderer.Close()
}

func (r *interactiveGLRenderer) initGL(opts Options) error {
	var err error
	if err = glfw.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize glfw")
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	r.window, err = glfw.CreateWindow(int(opts.FrameW), int(opts.FrameH), "OpenGL ray casting", nil, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "could not create opengl window")
	}
	r.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		return errors.Wrap(err, "could not init opengl")
	}

	// Setup texture for image data
	gl.GenTextures(1, &r.texId)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.texId)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(opts.FrameW), int32(opts.FrameH), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	// Attach texture to FBO
	gl.GenFramebuffers(1, &r.texFbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, r.texId, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	// Bind event callbacks
	r.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	r.window.SetKeyCallback(r.onKeyEvent)
	r.window.SetCursorPosCallback(r.onCursorPosEvent)

	return nil
}

// Render frames until the window is closed or ctx is cancelled.
func (r *interactiveGLRenderer) Render(ctx context.Context) error {
	frameW, frameH := int32(r.options.FrameW), int32(r.options.FrameH)
	for !r.window.ShouldClose() {
		select {
		case <-ctx.Done():
			return ErrInterrupted
		default:
		}

		glfw.PollEvents()
		r.applyMovement()

		err := r.renderFrame(ctx)
		if err != nil {
			return err
		}

		// Update texture with frame data
		gl.BindTexture(gl.TEXTURE_2D, r.texId)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, frameW, frameH, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(r.frame.Pix))

		// Copy texture data to framebuffer. Frame row 0 is the top row so
		// the blit flips the Y axis.
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
		gl.BlitFramebuffer(0, 0, frameW, frameH, 0, frameH, frameW, 0, gl.COLOR_BUFFER_BIT, gl.NEAREST)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

		// Display tracer stats
		if r.showUI {
			r.renderUI()
		}

		r.window.SwapBuffers()
	}
	return nil
}

// Move the camera along every direction whose key is held down.
func (r *interactiveGLRenderer) applyMovement() {
	moved := false
	for key, dir := range moveKeys {
		if r.window.GetKey(key) == glfw.Press {
			r.camera.Move(dir)
			moved = true
		}
	}
	if moved {
		r.UpdateCamera()
	}
}

func (r *interactiveGLRenderer) initUI() {
	// Setup ortho projection for UI bits
	gl.Disable(gl.DEPTH_TEST)
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	gl.Ortho(0, float64(r.options.FrameW), float64(r.options.FrameH), 0, -1, 1)
	gl.Viewport(0, 0, int32(r.options.FrameW), int32(r.options.FrameH))
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()

	// Setup series
	r.blockAssignmentSeries = makeStackedSeries(len(r.tracers), int(r.options.FrameW))
}

func (r *interactiveGLRenderer) renderUI() {
	var y int32 = 1
	var frameW int32 = int32(r.options.FrameW) - 1
	gl.LineWidth(2.0)
	for seriesIndex, blockH := range r.blockAssignments {
		gl.Color3fv(&r.blockAssignmentSeries.colors[seriesIndex][0])
		gl.Begin(gl.LINE_LOOP)
		gl.Vertex2i(0, y)
		gl.Vertex2i(frameW, y)
		gl.Vertex2i(frameW, y+int32(blockH))
		gl.Vertex2i(0, y+int32(blockH))
		gl.End()

		y += int32(blockH)
	}

	for seriesIndex, blockH := range r.blockAssignments {
		r.blockAssignmentSeries.Append(seriesIndex, float32(blockH))
	}
	r.blockAssignmentSeries.Render(r.options.FrameH-stackedSeriesHeight, stackedSeriesHeight)
}

func (r *interactiveGLRenderer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}

	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyTab:
		r.showUI = !r.showUI
		if r.showUI {
			r.blockAssignmentSeries.Clear()
		}
	}
}

func (r *interactiveGLRenderer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !r.cursorTracked {
		r.lastCursorPos = [2]float64{xPos, yPos}
		r.cursorTracked = true
		return
	}

	dx := float32(xPos - r.lastCursorPos[0])
	dy := float32(yPos - r.lastCursorPos[1])
	r.lastCursorPos = [2]float64{xPos, yPos}

	r.camera.Rotate(dx, dy)
	r.UpdateCamera()
}

type stackedSeries struct {
	series [][]float32
	colors []types.Vec3
}

func makeStackedSeries(numSeries, histCount int) *stackedSeries {
	s := &stackedSeries{
		series: make([][]float32, numSeries),
		colors: make([]types.Vec3, numSeries),
	}

	for sIndex := 0; sIndex < numSeries; sIndex++ {
		s.series[sIndex] = make([]float32, histCount)
		s.colors[sIndex] = types.Vec3{rand.Float32(), rand.Float32(), 1.0}
	}

	return s
}

// Clear series
func (s *stackedSeries) Clear() {
	histCount := len(s.series[0])
	for sIndex := 0; sIndex < len(s.series); sIndex++ {
		s.series[sIndex] = make([]float32, histCount)
	}
}

// Shift series values and append new value at the end.
func (s *stackedSeries) Append(seriesIndex int, val float32) {
	s.series[seriesIndex] = append(s.series[seriesIndex][1:], val)
}

func (s *stackedSeries) Render(rY, rHeight uint32) {
	gl.Begin(gl.LINES)
	for x := 0; x < len(s.series[0]); x++ {
		var sum float32 = 0
		var scale float32 = 1.0
		for seriesIndex := 0; seriesIndex < len(s.series); seriesIndex++ {
			sum += s.series[seriesIndex][x]
		}
		if sum > 0.0 {
			scale = float32(rHeight) / sum
		}

		var y float32 = float32(rY)
		for seriesIndex := 0; seriesIndex < len(s.series); seriesIndex++ {
			sH := s.series[seriesIndex][x] * scale
			gl.Color3fv(&s.colors[seriesIndex][0])
			gl.Vertex2f(float32(x), y)
			gl.Vertex2f(float32(x), y+sH)
			y += sH
		}

	}
	gl.End()
}
