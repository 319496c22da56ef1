package main

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// restVelocity is the speed below which an axis stops, so accumulation can
// resume once the camera settles.
const restVelocity = 1e-4

// motionAxis is one camera degree of freedom. Input adds velocity and a
// critically damped spring bleeds it back to rest.
type motionAxis struct {
	Velocity float64
	spring   harmonica.Spring
	accel    float64
}

func newMotionAxis(fps int) motionAxis {
	return motionAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = no overshoot
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Step returns this frame's displacement and decays the velocity.
func (a *motionAxis) Step() float64 {
	d := a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
	if math.Abs(a.Velocity) < restVelocity {
		a.Velocity, a.accel = 0, 0
	}
	return d
}

// motion holds the camera's translational and angular velocities.
type motion struct {
	Forward, Right, Up motionAxis
	Pitch, Yaw         motionAxis
	fps                int
}

func newMotion(fps int) *motion {
	m := &motion{fps: fps}
	m.Stop()
	return m
}

// Stop brings every axis to rest.
func (m *motion) Stop() {
	m.Forward = newMotionAxis(m.fps)
	m.Right = newMotionAxis(m.fps)
	m.Up = newMotionAxis(m.fps)
	m.Pitch = newMotionAxis(m.fps)
	m.Yaw = newMotionAxis(m.fps)
}

// Push adds translational velocity.
func (m *motion) Push(forward, right, up float64) {
	m.Forward.Velocity += forward
	m.Right.Velocity += right
	m.Up.Velocity += up
}

// Turn adds angular velocity.
func (m *motion) Turn(pitch, yaw float64) {
	m.Pitch.Velocity += pitch
	m.Yaw.Velocity += yaw
}

// step is one frame of camera displacement.
type step struct {
	forward, right, up float64
	pitch, yaw         float64
}

func (s step) moving() bool {
	return s != step{}
}

// Step advances every axis by one frame.
func (m *motion) Step() step {
	return step{
		forward: m.Forward.Step(),
		right:   m.Right.Step(),
		up:      m.Up.Step(),
		pitch:   m.Pitch.Step(),
		yaw:     m.Yaw.Step(),
	}
}
