package cmd

import (
	"math"
	"strconv"
	"strings"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/bvh"
	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Trace a single ray against a scene and report the hit.
func TraceRay(ctx *cli.Context) error {
	setupLogging(ctx)

	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return errors.Wrap(err, "invalid --origin")
	}
	dir, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return errors.Wrap(err, "invalid --dir")
	}
	if dir.Len() == 0 {
		return errors.New("invalid --dir: zero length direction")
	}

	mode, err := bvh.ParseTraversalMode(ctx.String("traversal"))
	if err != nil {
		return err
	}

	tree, _, err := loadScene(ctx)
	if err != nil {
		return err
	}

	closest := float32(ctx.Float64("max-dist"))
	if closest <= 0 {
		closest = math.MaxFloat32
	}

	hit, found := tree.TraverseFunc(mode)(origin, dir, &closest)
	if !found {
		logger.Noticef("%s traversal: no hit", mode)
		return nil
	}

	point := origin.Add(dir.Mul(hit.Distance))
	logger.Noticef(
		"%s traversal: hit triangle %d at distance %f; point %v; normal %v",
		mode, hit.Triangle, hit.Distance, point, hit.Normal,
	)
	return nil
}

// Parse a vector in "x,y,z" format.
func parseVec3(val string) (types.Vec3, error) {
	var v types.Vec3
	tokens := strings.Split(val, ",")
	if len(tokens) != 3 {
		return v, errors.Errorf("expected 3 comma separated components; got %d", len(tokens))
	}

	for idx, token := range tokens {
		f, err := strconv.ParseFloat(strings.TrimSpace(token), 32)
		if err != nil {
			return v, errors.Wrapf(err, "component %d", idx)
		}
		v[idx] = float32(f)
	}
	return v, nil
}
