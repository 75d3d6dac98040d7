package material

import (
	"math"

	"conray/vmath/vec3"
)

// Material is resolved per hit and never mutated afterwards.
//
// Specular is carried through every primitive but nothing in shading reads
// it yet.
type Material struct {
	Albedo       vec3.T
	Specular     float64
	Reflectivity float64
	Emission     vec3.T
}

// Func resolves a Material from the hit position, normal and a surface
// parameter.  Primitives that take one call it lazily at intersection time.
type Func func(p, n vec3.T, u float64) Material

// Override keeps the albedo and emission from m and replaces the scalar
// coefficients, the way surface primitives combine their own
// specular/reflectivity with a material function.
func Override(m Material, specular, reflectivity float64) Material {
	return Material{
		Albedo:       m.Albedo,
		Specular:     specular,
		Reflectivity: reflectivity,
		Emission:     m.Emission,
	}
}

func Constant(m Material) Func {
	return func(p, n vec3.T, u float64) Material {
		return m
	}
}

func Solid(albedo vec3.T) Func {
	return Constant(Material{Albedo: albedo})
}

func Emissive(emission vec3.T) Func {
	return Constant(Material{Emission: emission})
}

// Checker alternates between a and b on a grid of size scale in the XZ
// plane.
func Checker(a, b vec3.T, scale float64) Func {
	return func(p, n vec3.T, u float64) Material {
		cx := int(math.Floor(p[0] / scale))
		cz := int(math.Floor(p[2] / scale))
		if (cx+cz)&1 == 0 {
			return Material{Albedo: a}
		}
		return Material{Albedo: b}
	}
}

// Lookup resolves voxel cells: a material id and an opaque metadata id.
type Lookup func(matID, metaID int) Material
