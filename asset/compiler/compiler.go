package compiler

import (
	"time"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/compiler/input"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/asset/scene"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/log"
	"github.com/pkg/errors"
)

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	logger         log.Logger
}

// Compile a scene representation parsed by a scene reader into a flat
// triangle list and a serialized BVH ready for texture upload.
func Compile(name string, parsedScene *input.Scene) (*scene.Scene, error) {
	compiler := &sceneCompiler{
		parsedScene: parsedScene,
		logger:      log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	err := compiler.partitionGeometry(name)
	if err != nil {
		return nil, err
	}

	compiler.setupCamera()

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Flatten all mesh instances and build the scene BVH.
func (sc *sceneCompiler) partitionGeometry(name string) error {
	start := time.Now()
	sc.logger.Notice("partitioning geometry")

	coords := sc.parsedScene.Coords()
	tree, err := bvh.Build(coords)
	if err != nil {
		return errors.Wrapf(err, "compiler: could not partition %d triangles", len(coords)/bvh.FloatsPerTriangle)
	}
	sc.optimizedScene, err = scene.New(name, coords, tree)
	if err != nil {
		return err
	}

	sc.logger.Infof(
		"partitioned %d triangles into %d nodes in %d ms",
		len(coords)/bvh.FloatsPerTriangle,
		tree.NodeCount(),
		time.Since(start).Nanoseconds()/1e6,
	)
	sc.logger.Debugf("BVH stats:\n%s", tree.Stats())
	return nil
}

// Copy camera settings.
func (sc *sceneCompiler) setupCamera() {
	cam := sc.parsedScene.Camera
	if cam == nil {
		return
	}
	sc.optimizedScene.Camera = &scene.Camera{
		FOV:  cam.FOV,
		Eye:  cam.Eye,
		Look: cam.Look,
	}
}
