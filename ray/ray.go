package ray

import (
	"math"

	"conray/vmath/vec3"
)

type Span struct {
	Lo, Hi float64
}

func MinContainingSpan(a, b Span) Span {
	min := a.Lo
	if b.Lo < a.Lo {
		min = b.Lo
	}

	max := a.Hi
	if b.Hi > a.Hi {
		max = b.Hi
	}

	return Span{min, max}
}

// IsFinite is false for infinite or NaN endpoints.
func (s Span) IsFinite() bool {
	return !math.IsInf(s.Lo, 0) && !math.IsInf(s.Hi, 0) && !math.IsNaN(s.Lo) && !math.IsNaN(s.Hi)
}

func (s Span) Mid() float64 {
	return 0.5 * (s.Lo + s.Hi)
}

// Ray is a half-line.  Slope is kept at unit length by New; code that builds a
// Ray literal is responsible for that itself.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func New(point, slope vec3.T) Ray {
	return Ray{
		Point: point,
		Slope: vec3.Normalize(slope),
	}
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}
