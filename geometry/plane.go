package geometry

import (
	"math"

	"conray/aabox"
	"conray/contact"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"
)

// Plane is infinite, so it never goes into a BVH.
type Plane struct {
	Point  vec3.T
	Normal vec3.T

	Mtl          material.Func
	Specular     float64
	Reflectivity float64
}

func NewPlane(point, normal vec3.T, mtl material.Func, specular, reflectivity float64) *Plane {
	return &Plane{
		Point:        point,
		Normal:       vec3.Normalize(normal),
		Mtl:          mtl,
		Specular:     specular,
		Reflectivity: reflectivity,
	}
}

func (p *Plane) Bounds() (aabox.AABox, bool) {
	return aabox.AABox{}, false
}

func (p *Plane) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	denom := vec3.IProd(p.Normal, r.Slope)
	if math.Abs(denom) < 1e-6 {
		return contact.Contact{}, false
	}

	t := vec3.IProd(vec3.SubVV(p.Point, r.Point), p.Normal) / denom
	if t < tMin || t > tMax {
		return contact.Contact{}, false
	}

	c := contact.Contact{
		T: t,
		P: r.Eval(t),
		N: p.Normal,
	}
	if denom > 0 {
		c.N = vec3.Neg(p.Normal)
	}
	c.Mtl = material.Override(p.Mtl(c.P, c.N, 0), p.Specular, p.Reflectivity)
	return c, true
}

type Disk struct {
	Center vec3.T
	Normal vec3.T
	Radius float64

	Mtl          material.Func
	Specular     float64
	Reflectivity float64
}

func NewDisk(center, normal vec3.T, radius float64, mtl material.Func, specular, reflectivity float64) *Disk {
	return &Disk{
		Center:       center,
		Normal:       vec3.Normalize(normal),
		Radius:       radius,
		Mtl:          mtl,
		Specular:     specular,
		Reflectivity: reflectivity,
	}
}

// Bounds is the cube around the disk's circumscribing sphere, not a tight
// box.
func (d *Disk) Bounds() (aabox.AABox, bool) {
	r := vec3.T{d.Radius, d.Radius, d.Radius}
	return aabox.FromCorners(vec3.SubVV(d.Center, r), vec3.AddVV(d.Center, r)), true
}

func (d *Disk) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	denom := vec3.IProd(d.Normal, r.Slope)
	if math.Abs(denom) < 1e-6 {
		return contact.Contact{}, false
	}

	t := vec3.IProd(vec3.SubVV(d.Center, r.Point), d.Normal) / denom
	if t < tMin || t > tMax {
		return contact.Contact{}, false
	}

	p := r.Eval(t)
	if vec3.SubVV(p, d.Center).NormSquared() > d.Radius*d.Radius {
		return contact.Contact{}, false
	}

	c := contact.Contact{
		T: t,
		P: p,
		N: d.Normal,
	}
	if denom > 0 {
		c.N = vec3.Neg(d.Normal)
	}
	c.Mtl = material.Override(d.Mtl(c.P, c.N, 0), d.Specular, d.Reflectivity)
	return c, true
}
