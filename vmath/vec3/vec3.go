package vec3

import (
	"math"
)

type T [3]float64

var Zero = T{0, 0, 0}

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func (v T) NormSquared() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Normalize returns v scaled to unit length.  A zero vector is returned
// unchanged rather than turning into NaNs.
func Normalize(v T) T {
	l := v.Norm()
	if l <= 0 {
		return v
	}
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

// MulVV is the elementwise product, used for tinting colors.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func Neg(a T) T {
	return T{-a[0], -a[1], -a[2]}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// Lerp blends from a (t=0) to b (t=1).
func Lerp(a, b T, t float64) T {
	return T{
		a[0]*(1-t) + b[0]*t,
		a[1]*(1-t) + b[1]*t,
		a[2]*(1-t) + b[2]*t,
	}
}

func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Saturate clamps every component into [0, 1].
func Saturate(a T) T {
	return T{Clamp01(a[0]), Clamp01(a[1]), Clamp01(a[2])}
}

// FaceForward returns n oriented against the direction d.
func FaceForward(n, d T) T {
	if IProd(n, d) < 0 {
		return n
	}
	return Neg(n)
}

func MinVV(a, b T) T {
	return T{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func MaxVV(a, b T) T {
	return T{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

func ToneMapReinhard(c T) T {
	return T{
		c[0] / (1 + c[0]),
		c[1] / (1 + c[1]),
		c[2] / (1 + c[2]),
	}
}

func Gamma(c T, invGamma float64) T {
	return T{
		math.Pow(c[0], invGamma),
		math.Pow(c[1], invGamma),
		math.Pow(c[2], invGamma),
	}
}
