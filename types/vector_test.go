package types

import (
	"math"
	"testing"
)

func TestVectorOps(t *testing.T) {
	v1 := XYZ(1, 2, 3)
	v2 := XYZ(4, 0, -1)

	if got := v1.Add(v2); got != XYZ(5, 2, 2) {
		t.Fatalf("expected add result to be (5,2,2); got %v", got)
	}
	if got := v1.Sub(v2); got != XYZ(-3, 2, 4) {
		t.Fatalf("expected sub result to be (-3,2,4); got %v", got)
	}
	if got := v1.Dot(v2); got != 1 {
		t.Fatalf("expected dot product to be 1; got %f", got)
	}
	if got := XYZ(1, 0, 0).Cross(XYZ(0, 1, 0)); got != XYZ(0, 0, 1) {
		t.Fatalf("expected cross product to be (0,0,1); got %v", got)
	}
	if got := MinVec3(v1, v2); got != XYZ(1, 0, -1) {
		t.Fatalf("expected min vector to be (1,0,-1); got %v", got)
	}
	if got := MaxVec3(v1, v2); got != XYZ(4, 2, 3) {
		t.Fatalf("expected max vector to be (4,2,3); got %v", got)
	}
	if got := v2.Abs(); got != XYZ(4, 0, 1) {
		t.Fatalf("expected abs vector to be (4,0,1); got %v", got)
	}
	if got := v2.MaxComponent(); got != 4 {
		t.Fatalf("expected max component to be 4; got %f", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := XYZ(0, 3, 0).Normalize(); got != XYZ(0, 1, 0) {
		t.Fatalf("expected (0,1,0); got %v", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("expected zero vector to normalize to zero; got %v", got)
	}
}

func TestDivByZero(t *testing.T) {
	got := XYZ(1, -1, 0).Div(Vec3{})
	if !math.IsInf(float64(got[0]), 1) || !math.IsInf(float64(got[1]), -1) || !math.IsNaN(float64(got[2])) {
		t.Fatalf("expected (+Inf,-Inf,NaN); got %v", got)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	type spec struct {
		in  int
		out int
	}
	specs := []spec{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{17, 32},
		{64, 64},
	}
	for idx, s := range specs {
		if got := NextPowerOfTwo(s.in); got != s.out {
			t.Fatalf("[spec %d] expected NextPowerOfTwo(%d) to be %d; got %d", idx, s.in, s.out, got)
		}
	}
}
