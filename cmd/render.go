package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/scene/reader"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/renderer"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/tracer"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/tracer/cpu"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Default vertical field of view for scenes without camera settings.
const defaultFOV float32 = 90

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	tree, camera, err := loadScene(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(tree, camera, scheduler(ctx), setupTracers(ctx), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = r.Render(sigCtx)
	if err != nil {
		return err
	}

	// Display stats
	displayFrameStats(r.Stats())

	imgFile := ctx.String("out")
	err = renderer.SaveImage(imgFile, r.Frame())
	if err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s", imgFile)

	return nil
}

// Use opengl to render a continuously updating view of the scene.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	tree, camera, err := loadScene(ctx)
	if err != nil {
		return err
	}

	r, err := renderer.NewInteractive(tree, camera, scheduler(ctx), setupTracers(ctx), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = r.Render(sigCtx)
	if err == renderer.ErrInterrupted {
		return nil
	}
	return err
}

func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	traversal, err := bvh.ParseTraversalMode(ctx.String("traversal"))
	if err != nil {
		return renderer.Options{}, err
	}

	return renderer.Options{
		FrameW:      uint32(ctx.Int("width")),
		FrameH:      uint32(ctx.Int("height")),
		Traversal:   traversal,
		MaxDistance: float32(ctx.Float64("max-dist")),
	}, nil
}

// Load the scene named by the first command argument and set up a camera
// from its stored camera settings.
func loadScene(ctx *cli.Context) (*bvh.Tree, *tracer.Camera, error) {
	if ctx.NArg() != 1 {
		return nil, nil, errors.New("missing scene file argument")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return nil, nil, err
	}

	tree, err := sc.Tree()
	if err != nil {
		return nil, nil, err
	}

	camera := tracer.NewCamera(defaultFOV)
	if sc.Camera != nil {
		if sc.Camera.FOV > 0 {
			camera.FOV = sc.Camera.FOV
		}
		camera.LookAt(sc.Camera.Eye, sc.Camera.Look)
	}

	return tree, camera, nil
}

func setupTracers(ctx *cli.Context) []tracer.Tracer {
	workers := ctx.Int("workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tracers := make([]tracer.Tracer, workers)
	for idx := range tracers {
		tracers[idx] = cpu.NewTracer(workerId(idx), 1)
	}
	logger.Infof("using %d cpu tracers", workers)
	return tracers
}

func workerId(idx int) string {
	return fmt.Sprintf("cpu-%02d", idx)
}

func scheduler(ctx *cli.Context) tracer.BlockScheduler {
	if ctx.Bool("naive") {
		return tracer.NaiveScheduler()
	}
	return tracer.PerfectScheduler()
}

func displayFrameStats(stats renderer.FrameStats) {
	logger.Noticef("frame statistics\n%s", stats.String())
}
