// Package camera is a pinhole camera looking down -Z at yaw 0, pitch 0.
package camera

import (
	"math"

	"conray/ray"
	"conray/vmath/vec3"
)

// Pose is what the host moves around: a position plus yaw and pitch in
// radians.
type Pose struct {
	Position   vec3.T
	Yaw, Pitch float64
}

// ForwardFromYawPitch points down -Z at yaw 0.  Positive yaw turns toward +X,
// positive pitch toward +Y.
func ForwardFromYawPitch(yaw, pitch float64) vec3.T {
	cp := math.Cos(pitch)
	return vec3.T{math.Sin(yaw) * cp, math.Sin(pitch), -math.Cos(yaw) * cp}
}

type Camera struct {
	Origin  vec3.T
	Forward vec3.T
	Right   vec3.T
	Up      vec3.T

	tanHalf float64
	aspect  float64
}

// New builds an orthonormal frame looking from eye toward lookAt.  fovDeg is
// the vertical field of view; aspect is width over height.
func New(eye, lookAt, up vec3.T, fovDeg, aspect float64) *Camera {
	f := vec3.Normalize(vec3.SubVV(lookAt, eye))
	r := vec3.Normalize(vec3.CProd(f, up))
	u := vec3.Normalize(vec3.CProd(r, f))
	return &Camera{
		Origin:  eye,
		Forward: f,
		Right:   r,
		Up:      u,
		tanHalf: math.Tan(fovDeg * math.Pi / 180 * 0.5),
		aspect:  aspect,
	}
}

// FromPose is the camera the renderer uses: world up is +Y.
func FromPose(p Pose, fovDeg, aspect float64) *Camera {
	fwd := ForwardFromYawPitch(p.Yaw, p.Pitch)
	return New(p.Position, vec3.AddVV(p.Position, fwd), vec3.T{0, 1, 0}, fovDeg, aspect)
}

// MakeRay maps an image position to a primary ray.  (px, py) is measured in
// pixels from the top-left corner, so the center of pixel (i, j) is
// (i+0.5, j+0.5).
func (c *Camera) MakeRay(px, py float64, width, height int) ray.Ray {
	ndcX := (px/float64(width))*2 - 1
	ndcY := 1 - (py/float64(height))*2
	camX := ndcX * c.tanHalf * c.aspect
	camY := ndcY * c.tanHalf

	dir := vec3.AddVV(c.Forward, vec3.AddVV(vec3.MulVS(c.Right, camX), vec3.MulVS(c.Up, camY)))
	return ray.New(c.Origin, dir)
}
