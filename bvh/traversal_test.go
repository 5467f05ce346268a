package bvh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/pkg/errors"
)

var allModes = []TraversalMode{Recursive, Stack}

func TestTraverseSingleTriangle(t *testing.T) {
	tree, err := Build(triangleAt(types.XYZ(0, 0, 0)))
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range allModes {
		closest := float32(math.MaxFloat32)
		hit, ok := tree.TraverseFunc(mode)(types.XYZ(0.2, 0.2, -1), types.XYZ(0, 0, 1), &closest)
		if !ok {
			t.Fatalf("[%s] expected ray to hit", mode)
		}
		if closest != 1 || hit.Distance != 1 {
			t.Fatalf("[%s] expected hit distance 1; got %f (closest %f)", mode, hit.Distance, closest)
		}
		if exp := types.XYZ(0, 0, 1); hit.Normal != exp {
			t.Fatalf("[%s] expected normal %v; got %v", mode, exp, hit.Normal)
		}
		if hit.Triangle != 0 {
			t.Fatalf("[%s] expected triangle 0; got %d", mode, hit.Triangle)
		}
	}
}

func TestTraverseDisjointTriangles(t *testing.T) {
	tree, err := Build(meshAt(types.XYZ(0, 0, 0), types.XYZ(5, 0, 0)))
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range allModes {
		closest := float32(math.MaxFloat32)
		hit, ok := tree.TraverseFunc(mode)(types.XYZ(5.2, 0.2, -1), types.XYZ(0, 0, 1), &closest)
		if !ok {
			t.Fatalf("[%s] expected ray to hit", mode)
		}
		if hit.Triangle != 1 {
			t.Fatalf("[%s] expected ray to hit triangle 1; got %d", mode, hit.Triangle)
		}

		// A ray passing between the triangles hits nothing
		closest = math.MaxFloat32
		if hit, ok = tree.TraverseFunc(mode)(types.XYZ(3, 0.2, -1), types.XYZ(0, 0, 1), &closest); ok {
			t.Fatalf("[%s] expected ray to miss; got hit %+v", mode, hit)
		}
		if closest != math.MaxFloat32 {
			t.Fatalf("[%s] expected closest to be unchanged on miss; got %f", mode, closest)
		}
	}
}

func TestTraverseMaxDistance(t *testing.T) {
	tree, err := Build(meshAt(types.XYZ(0, 0, 0), types.XYZ(0, 0, 5)))
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range allModes {
		closest := float32(0.5)
		if _, ok := tree.TraverseFunc(mode)(types.XYZ(0.2, 0.2, -1), types.XYZ(0, 0, 1), &closest); ok {
			t.Fatalf("[%s] expected hits beyond the max distance to be rejected", mode)
		}
		if closest != 0.5 {
			t.Fatalf("[%s] expected closest to remain 0.5; got %f", mode, closest)
		}
	}
}

func TestTraverseStackFindsClosest(t *testing.T) {
	// Two stacked triangles: the nearer one (z=0) is triangle 0. The root
	// references both as leaves and the recursive traversal tests the
	// right (farther) triangle first, returning on that hit.
	tree, err := Build(meshAt(types.XYZ(0, 0, 0), types.XYZ(0, 0, 5)))
	if err != nil {
		t.Fatal(err)
	}

	origin := types.XYZ(0.2, 0.2, -1)
	dir := types.XYZ(0, 0, 1)

	recClosest := float32(math.MaxFloat32)
	recHit, ok := tree.Traverse(origin, dir, &recClosest)
	if !ok || recHit.Triangle != 1 || recClosest != 6 {
		t.Fatalf("expected recursive traversal to accept triangle 1 at 6; got %+v (hit %t)", recHit, ok)
	}

	stackClosest := float32(math.MaxFloat32)
	stackHit, ok := tree.TraverseStack(origin, dir, &stackClosest)
	if !ok || stackHit.Triangle != 0 || stackClosest != 1 {
		t.Fatalf("expected stack traversal to find triangle 0 at 1; got %+v (hit %t)", stackHit, ok)
	}
}

func TestTraverseZeroDirection(t *testing.T) {
	tree, err := Build(meshAt(types.XYZ(0, 0, 0), types.XYZ(3, 0, 0), types.XYZ(0, 3, 0)))
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range allModes {
		for _, origin := range []types.Vec3{types.XYZ(0.2, 0.2, -1), types.XYZ(0.5, 0.5, 0)} {
			closest := float32(math.MaxFloat32)
			if _, ok := tree.TraverseFunc(mode)(origin, types.Vec3{}, &closest); ok {
				t.Fatalf("[%s] expected zero direction ray from %v to miss", mode, origin)
			}
		}
	}
}

func TestTraversalAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	coords := randomSoup(rng, 500, 40)
	tree, err := Build(coords)
	if err != nil {
		t.Fatal(err)
	}

	triangles := tree.Triangles()
	hits := 0
	for i := 0; i < 2000; i++ {
		origin := types.XYZ(rng.Float32()*60-10, rng.Float32()*60-10, -20)
		target := types.XYZ(rng.Float32()*40, rng.Float32()*40, rng.Float32()*40)
		dir := target.Sub(origin)

		recClosest := float32(math.MaxFloat32)
		_, recOk := tree.Traverse(origin, dir, &recClosest)
		stackClosest := float32(math.MaxFloat32)
		stackHit, stackOk := tree.TraverseStack(origin, dir, &stackClosest)

		if stackClosest > recClosest {
			t.Fatalf("[ray %d] stack closest %f exceeds recursive closest %f", i, stackClosest, recClosest)
		}
		if recOk && !stackOk {
			t.Fatalf("[ray %d] recursive traversal found a hit but stack traversal did not", i)
		}

		// No triangle may beat the brute force closest distance
		bruteClosest := float32(math.MaxFloat32)
		for idx := range triangles {
			triangles[idx].Intersects(origin, dir, &bruteClosest)
		}
		if bruteClosest > stackClosest {
			t.Fatalf("[ray %d] brute force closest %f exceeds stack closest %f", i, bruteClosest, stackClosest)
		}
		if stackOk {
			hits++
			if stackHit.Distance != stackClosest {
				t.Fatalf("[ray %d] expected hit distance %f to match closest %f", i, stackHit.Distance, stackClosest)
			}
		}
	}

	if hits == 0 {
		t.Fatal("expected at least one ray to hit the soup")
	}
}

func TestTraverseIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tree, err := Build(randomSoup(rng, 100, 10))
	if err != nil {
		t.Fatal(err)
	}

	origin := types.XYZ(5, 5, -10)
	dir := types.XYZ(0.01, -0.02, 1)
	for _, mode := range allModes {
		traverse := tree.TraverseFunc(mode)
		expClosest := float32(math.MaxFloat32)
		expHit, expOk := traverse(origin, dir, &expClosest)
		for i := 0; i < 5; i++ {
			closest := float32(math.MaxFloat32)
			hit, ok := traverse(origin, dir, &closest)
			if hit != expHit || ok != expOk || closest != expClosest {
				t.Fatalf("[%s call %d] expected (%+v, %t); got (%+v, %t)", mode, i, expHit, expOk, hit, ok)
			}
		}
	}
}

func TestTraverseDanglingReferencePanics(t *testing.T) {
	tree, err := Build(meshAt(types.XYZ(0, 0, 0), types.XYZ(5, 0, 0)))
	if err != nil {
		t.Fatal(err)
	}
	tree.nodes[0].Right = 42

	defer func() {
		if recover() == nil {
			t.Fatal("expected traversal of a dangling triangle reference to panic")
		}
	}()
	closest := float32(math.MaxFloat32)
	tree.Traverse(types.XYZ(0.2, 0.2, -1), types.XYZ(0, 0, 1), &closest)
}

func TestParseTraversalMode(t *testing.T) {
	for _, mode := range allModes {
		parsed, err := ParseTraversalMode(mode.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != mode {
			t.Fatalf("expected parsed mode %s; got %s", mode, parsed)
		}
	}

	if _, err := ParseTraversalMode("bfs"); errors.Cause(err) != ErrUnknownTraversalMode {
		t.Fatalf("expected to get ErrUnknownTraversalMode; got %v", err)
	}
}
