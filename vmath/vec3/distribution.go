package vec3

import (
	"math"
	"math/rand"
)

// CosineHemisphere maps the unit square sample (u1, u2) onto the hemisphere
// around the unit normal n with a cosine-weighted density.
func CosineHemisphere(n T, u1, u2 float64) T {
	r := math.Sqrt(u1)
	theta := 2 * math.Pi * u2
	x := r * math.Cos(theta)
	y := r * math.Sin(theta)
	z := math.Sqrt(math.Max(0, 1-u1))

	// Cross against whichever world axis is far from n.
	a := T{1, 0, 0}
	if math.Abs(n[0]) > 0.1 {
		a = T{0, 1, 0}
	}
	v := Normalize(CProd(n, a))
	u := CProd(v, n)

	return Normalize(AddVV(AddVV(MulVS(u, x), MulVS(v, y)), MulVS(n, z)))
}

func CosineUnitVec3Distribution(normal T, rng *rand.Rand) T {
	return CosineHemisphere(normal, rng.Float64(), rng.Float64())
}
