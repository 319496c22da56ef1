package render

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// Camera is a pinhole camera with Euler orientation. It produces primary
// rays for the tracer.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)
	Roll  float64 // Rotation around the view axis (tilt)

	FOV float64 // Vertical field of view in radians
}

// NewCamera creates a new camera with default settings.
func NewCamera() *Camera {
	return &Camera{
		Position: math3d.V3(0, 0, 5),
		FOV:      math.Pi / 3, // 60 degrees
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
}

// SetRotation sets the camera rotation (pitch, yaw, roll in radians).
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch = pitch
	c.Yaw = yaw
	c.Roll = roll
	c.clampPitch()
}

// SetFOV sets the vertical field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
}

// Forward returns the forward direction vector.
func (c *Camera) Forward() math3d.Vec3 {
	// Forward is -Z in camera space, rotated by yaw and pitch
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the right direction vector, including roll.
func (c *Camera) Right() math3d.Vec3 {
	right, up := c.flatBasis()
	return right.Scale(math.Cos(c.Roll)).Add(up.Scale(math.Sin(c.Roll)))
}

// Up returns the up direction vector, including roll.
func (c *Camera) Up() math3d.Vec3 {
	right, up := c.flatBasis()
	return up.Scale(math.Cos(c.Roll)).Sub(right.Scale(math.Sin(c.Roll)))
}

// flatBasis returns right and up before roll is applied.
func (c *Camera) flatBasis() (right, up math3d.Vec3) {
	right = math3d.V3(math.Cos(c.Yaw), 0, -math.Sin(c.Yaw))
	up = right.Cross(c.Forward())
	return right, up
}

// MoveForward moves the camera forward (or backward if negative).
func (c *Camera) MoveForward(distance float64) {
	c.Position = c.Position.Add(c.Forward().Scale(distance))
}

// MoveRight moves the camera right (or left if negative).
func (c *Camera) MoveRight(distance float64) {
	c.Position = c.Position.Add(c.Right().Scale(distance))
}

// MoveUp moves the camera up (or down if negative).
func (c *Camera) MoveUp(distance float64) {
	c.Position = c.Position.Add(math3d.Up().Scale(distance))
}

// Rotate rotates the camera by the given angles (in radians).
func (c *Camera) Rotate(deltaPitch, deltaYaw, deltaRoll float64) {
	c.Pitch += deltaPitch
	c.Yaw += deltaYaw
	c.Roll += deltaRoll
	c.clampPitch()
}

func (c *Camera) clampPitch() {
	// Clamp pitch to avoid gimbal lock issues
	const maxPitch = math.Pi/2 - 0.01
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// LookAt makes the camera look at a target point.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()

	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0
}

// Ray returns the primary ray through the continuous pixel coordinate
// (px, py) of a width x height image. (0, 0) is the top-left corner of the
// top-left pixel; pixel centres sit at half-integers.
func (c *Camera) Ray(px, py float64, width, height int) math3d.Ray {
	halfH := math.Tan(c.FOV / 2)
	halfW := halfH * float64(width) / float64(height)

	sx := (2*px/float64(width) - 1) * halfW
	sy := (1 - 2*py/float64(height)) * halfH

	right, up := c.Right(), c.Up()
	dir := c.Forward().Add(right.Scale(sx)).Add(up.Scale(sy))
	return math3d.NewRay(c.Position, dir)
}
