package geometry

import (
	"math"

	"conray/aabox"
	"conray/contact"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"
)

type Sphere struct {
	Center vec3.T
	Radius float64
	Mtl    material.Material
}

func (s *Sphere) Bounds() (aabox.AABox, bool) {
	r := vec3.T{s.Radius, s.Radius, s.Radius}
	return aabox.FromCorners(vec3.SubVV(s.Center, r), vec3.AddVV(s.Center, r)), true
}

func (s *Sphere) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	oc := vec3.SubVV(r.Point, s.Center)
	a := vec3.IProd(r.Slope, r.Slope)
	b := 2 * vec3.IProd(oc, r.Slope)
	c := vec3.IProd(oc, oc) - s.Radius*s.Radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return contact.Contact{}, false
	}

	sq := math.Sqrt(disc)
	t := (-b - sq) / (2 * a)
	if t < tMin || t > tMax {
		t = (-b + sq) / (2 * a)
		if t < tMin || t > tMax {
			return contact.Contact{}, false
		}
	}

	p := r.Eval(t)
	outward := vec3.DivVS(vec3.SubVV(p, s.Center), s.Radius)
	return contact.Contact{
		T:   t,
		P:   p,
		N:   vec3.FaceForward(outward, r.Slope),
		Mtl: s.Mtl,
	}, true
}
