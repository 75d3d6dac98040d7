package geometry

import (
	"math"

	"conray/aabox"
	"conray/contact"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"
)

type Triangle struct {
	A, B, C vec3.T
	Mtl     material.Material
}

func (tri *Triangle) Bounds() (aabox.AABox, bool) {
	lo := vec3.MinVV(tri.A, vec3.MinVV(tri.B, tri.C))
	hi := vec3.MaxVV(tri.A, vec3.MaxVV(tri.B, tri.C))
	return aabox.FromCorners(lo, hi).Pad(Eps, [3]bool{true, true, true}), true
}

// Hit is Möller–Trumbore.  U and V of the contact are the barycentric
// weights of B and C.
func (tri *Triangle) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	e1 := vec3.SubVV(tri.B, tri.A)
	e2 := vec3.SubVV(tri.C, tri.A)
	pvec := vec3.CProd(r.Slope, e2)
	det := vec3.IProd(e1, pvec)
	if math.Abs(det) < 1e-8 {
		return contact.Contact{}, false
	}
	invDet := 1 / det

	tvec := vec3.SubVV(r.Point, tri.A)
	u := vec3.IProd(tvec, pvec) * invDet
	if u < 0 || u > 1 {
		return contact.Contact{}, false
	}

	qvec := vec3.CProd(tvec, e1)
	v := vec3.IProd(r.Slope, qvec) * invDet
	if v < 0 || u+v > 1 {
		return contact.Contact{}, false
	}

	t := vec3.IProd(e2, qvec) * invDet
	if t < tMin || t > tMax {
		return contact.Contact{}, false
	}

	n := vec3.Normalize(vec3.CProd(e1, e2))
	return contact.Contact{
		T:   t,
		P:   r.Eval(t),
		N:   vec3.FaceForward(n, r.Slope),
		Mtl: tri.Mtl,
		U:   u,
		V:   v,
	}, true
}
