// Package integrator turns a primary ray into linear radiance: direct light
// from point lights with hard shadows, an ambient term, perfect mirrors, and
// one cosine-weighted diffuse bounce.
package integrator

import (
	"math"
	"math/rand"

	"conray/geometry"
	"conray/ray"
	"conray/scene"
	"conray/vmath/vec3"
)

const (
	DiffuseBounces   = 1
	IndirectSamples  = 1
	MaxMirrorBounces = 2
	MirrorThreshold  = 0.9

	// PrimaryTMin is the near end of every traced (non-shadow) ray.
	PrimaryTMin = 0.001
)

// Trace returns the radiance arriving along r.  depth is 0 for primary rays.
func Trace(snap *scene.Snapshot, r ray.Ray, depth int, rng *rand.Rand) vec3.T {
	c, ok := snap.Hit(r, PrimaryTMin, math.MaxFloat64)
	if !ok {
		return snap.Background(r.Slope)
	}

	mtl := c.Mtl
	color := mtl.Emission
	origin := vec3.AddVV(c.P, vec3.MulVS(c.N, geometry.Eps))

	if mtl.Reflectivity >= MirrorThreshold {
		if depth >= MaxMirrorBounces {
			return color
		}
		refl := ray.New(origin, vec3.Reflect(r.Slope, c.N))
		li := Trace(snap, refl, depth+1, rng)
		return vec3.AddVV(color, vec3.MulVV(mtl.Albedo, li))
	}

	if !snap.Ambient.IsZero() {
		color = vec3.AddVV(color, vec3.MulVV(mtl.Albedo, snap.Ambient.Radiance()))
	}

	for i := range snap.Lights {
		l := &snap.Lights[i]
		toL := vec3.SubVV(l.Position, c.P)
		dist2 := toL.NormSquared()
		dist := math.Sqrt(dist2)
		lDir := vec3.DivVS(toL, dist)

		nDotL := math.Max(0, vec3.IProd(c.N, lDir))
		if nDotL <= 0 {
			continue
		}

		if snap.Occluded(ray.Ray{Point: origin, Slope: lDir}, dist-geometry.Eps) {
			continue
		}

		color = vec3.AddVV(color, vec3.MulVV(mtl.Albedo, vec3.MulVS(l.Radiance(dist2), nDotL)))
	}

	if depth < DiffuseBounces {
		indirect := vec3.Zero
		for s := 0; s < IndirectSamples; s++ {
			dir := vec3.CosineUnitVec3Distribution(c.N, rng)
			li := Trace(snap, ray.Ray{Point: origin, Slope: dir}, depth+1, rng)
			indirect = vec3.AddVV(indirect, vec3.MulVV(mtl.Albedo, li))
		}
		color = vec3.AddVV(color, vec3.DivVS(indirect, IndirectSamples))
	}

	return color
}
