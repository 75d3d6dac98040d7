package aabox

import (
	"math"

	"conray/ray"
	"conray/vmath/vec3"
)

type AABox struct {
	X, Y, Z ray.Span
}

func AccumZeroAABox() AABox {
	return AABox{
		X: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Y: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
		Z: ray.Span{Lo: math.Inf(1), Hi: math.Inf(-1)},
	}
}

func FromCorners(min, max vec3.T) AABox {
	return AABox{
		X: ray.Span{Lo: min[0], Hi: max[0]},
		Y: ray.Span{Lo: min[1], Hi: max[1]},
		Z: ray.Span{Lo: min[2], Hi: max[2]},
	}
}

func MinContainingAABox(a, b AABox) AABox {
	return AABox{
		X: ray.MinContainingSpan(a.X, b.X),
		Y: ray.MinContainingSpan(a.Y, b.Y),
		Z: ray.MinContainingSpan(a.Z, b.Z),
	}
}

func GrowAABoxToPoint(a AABox, p vec3.T) AABox {
	return MinContainingAABox(a, AABox{
		X: ray.Span{Lo: p[0], Hi: p[0]},
		Y: ray.Span{Lo: p[1], Hi: p[1]},
		Z: ray.Span{Lo: p[2], Hi: p[2]},
	})
}

// Pad widens the box by eps on every axis where pad[i] is set.
func (a AABox) Pad(eps float64, pad [3]bool) AABox {
	if pad[0] {
		a.X = ray.Span{Lo: a.X.Lo - eps, Hi: a.X.Hi + eps}
	}
	if pad[1] {
		a.Y = ray.Span{Lo: a.Y.Lo - eps, Hi: a.Y.Hi + eps}
	}
	if pad[2] {
		a.Z = ray.Span{Lo: a.Z.Lo - eps, Hi: a.Z.Hi + eps}
	}
	return a
}

func (a AABox) Min() vec3.T {
	return vec3.T{a.X.Lo, a.Y.Lo, a.Z.Lo}
}

func (a AABox) Max() vec3.T {
	return vec3.T{a.X.Hi, a.Y.Hi, a.Z.Hi}
}

func (a AABox) Centroid() vec3.T {
	return vec3.T{a.X.Mid(), a.Y.Mid(), a.Z.Mid()}
}

func (a AABox) Axis(i int) ray.Span {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	default:
		return a.Z
	}
}

func (a AABox) IsFinite() bool {
	return a.X.IsFinite() && a.Y.IsFinite() && a.Z.IsFinite()
}

func (a AABox) SurfaceArea() float64 {
	xLen := a.X.Hi - a.X.Lo
	yLen := a.Y.Hi - a.Y.Lo
	zLen := a.Z.Hi - a.Z.Lo
	return 2 * (xLen*yLen + xLen*zLen + yLen*zLen)
}

// RayHits is the slab test.  The interval [tMin, tMax] is narrowed axis by
// axis, and the box is rejected as soon as it becomes empty.
func RayHits(r *ray.Ray, b *AABox, tMin, tMax float64) bool {
	for i := 0; i < 3; i++ {
		s := b.Axis(i)
		inv := 1 / r.Slope[i]
		t0 := (s.Lo - r.Point[i]) * inv
		t1 := (s.Hi - r.Point[i]) * inv
		if inv < 0 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMax <= tMin {
			return false
		}
	}
	return true
}

// RayEntry is the slab test used by the voxel grid.  It reports the entry and
// exit distances and the axis whose slab set the entry distance (-1 when the
// ray is parallel to every slab).  Components of the slope closer to zero
// than 1e-12 are treated as parallel to that slab.
func RayEntry(r *ray.Ray, b *AABox) (tEnter, tExit float64, enterAxis int, ok bool) {
	tEnter = math.Inf(-1)
	tExit = math.Inf(1)
	enterAxis = -1

	for i := 0; i < 3; i++ {
		s := b.Axis(i)
		o := r.Point[i]
		d := r.Slope[i]
		if math.Abs(d) < 1e-12 {
			if o < s.Lo || o > s.Hi {
				return 0, 0, -1, false
			}
			continue
		}

		inv := 1 / d
		t0 := (s.Lo - o) * inv
		t1 := (s.Hi - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tEnter {
			tEnter = t0
			enterAxis = i
		}
		if t1 < tExit {
			tExit = t1
		}
		if tExit < tEnter {
			return 0, 0, -1, false
		}
	}

	return tEnter, tExit, enterAxis, tExit >= math.Max(0, tEnter)
}
