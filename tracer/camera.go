package tracer

import (
	"math"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/types"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera movement directions in view space.
type Direction uint8

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

var directionVectors = [...]mgl32.Vec3{
	Forward:  {0, 0, 1},
	Backward: {0, 0, -1},
	Left:     {-1, 0, 0},
	Right:    {1, 0, 0},
	Up:       {0, 1, 0},
	Down:     {0, -1, 0},
}

const (
	// Default camera location.
	defaultEyeY = 0.1
	defaultEyeZ = -20

	// Degrees of rotation per pixel of mouse movement.
	MouseSensitivity = 0.03
)

// A first-person camera looking down +Z in view space. Its orientation is
// described by a yaw (Y axis) and a pitch (X axis) angle in degrees; the
// view-to-world rotation is yaw * pitch.
type Camera struct {
	Position types.Vec3

	// Rotation angles in degrees.
	Yaw   float32
	Pitch float32

	// Vertical field of view in degrees.
	FOV float32

	// Distance travelled by each Move call.
	Speed float32

	viewToWorld mgl32.Mat3
}

// Create a camera at the default location looking down +Z.
func NewCamera(fov float32) *Camera {
	c := &Camera{
		Position: types.Vec3{0, defaultEyeY, defaultEyeZ},
		FOV:      fov,
		Speed:    1,
	}
	c.Update()
	return c
}

// Position the camera at eye looking towards look.
func (c *Camera) LookAt(eye, look types.Vec3) {
	c.Position = eye
	dir := look.Sub(eye).Normalize()
	if dir == (types.Vec3{}) {
		c.Yaw, c.Pitch = 0, 0
	} else {
		c.Pitch = mgl32.RadToDeg(float32(-math.Asin(float64(dir[1]))))
		c.Yaw = mgl32.RadToDeg(float32(math.Atan2(float64(dir[0]), float64(dir[2]))))
	}
	c.Update()
}

// Adjust the camera angles by a mouse movement delta.
func (c *Camera) Rotate(dx, dy float32) {
	c.Yaw += dx * MouseSensitivity
	c.Pitch += dy * MouseSensitivity
	c.Update()
}

// Recalculate the view-to-world matrix from the camera angles.
func (c *Camera) Update() {
	rot := mgl32.HomogRotate3DY(mgl32.DegToRad(c.Yaw)).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(c.Pitch)))
	c.viewToWorld = rot.Mat3()
}

// Get the view-to-world rotation.
func (c *Camera) ViewToWorld() mgl32.Mat3 {
	return c.viewToWorld
}

// Move the camera by Speed units along a view space direction.
func (c *Camera) Move(dir Direction) {
	delta := c.viewToWorld.Mul3x1(directionVectors[dir]).Mul(c.Speed)
	c.Position = c.Position.Add(types.Vec3(delta))
}

// Generate a primary ray through the center of pixel (x, y) of a w x h
// frame. Row 0 is the top of the frame. The returned direction is
// normalized.
func (c *Camera) Ray(x, y, w, h uint32) (types.Vec3, types.Vec3) {
	tanHalfFOV := float32(math.Tan(float64(mgl32.DegToRad(c.FOV)) / 2))
	aspect := float32(w) / float32(h)

	px := (2*(float32(x)+0.5)/float32(w) - 1) * aspect * tanHalfFOV
	py := (1 - 2*(float32(y)+0.5)/float32(h)) * tanHalfFOV

	dir := c.viewToWorld.Mul3x1(mgl32.Vec3{px, py, 1}).Normalize()
	return c.Position, types.Vec3(dir)
}
