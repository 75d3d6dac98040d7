// Package light holds the scene's light sources.
package light

import "conray/vmath/vec3"

// Point radiates Color*Intensity from Position, falling off with the square of
// distance.
type Point struct {
	Position  vec3.T
	Color     vec3.T
	Intensity float64
}

// Radiance is the unshadowed contribution of p at distance-squared d2.
func (p *Point) Radiance(d2 float64) vec3.T {
	return vec3.MulVS(p.Color, p.Intensity/d2)
}

// Ambient is a constant term added to every non-mirror surface.
type Ambient struct {
	Color     vec3.T
	Intensity float64
}

func (a Ambient) IsZero() bool {
	return a.Intensity == 0 || a.Color == (vec3.T{})
}

func (a Ambient) Radiance() vec3.T {
	return vec3.MulVS(a.Color, a.Intensity)
}
