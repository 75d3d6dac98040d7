package geometry

import (
	"math"

	"conray/aabox"
	"conray/contact"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"
)

// XYRect lies in the plane z == Z.
type XYRect struct {
	X0, X1, Y0, Y1, Z float64

	Mtl          material.Func
	Specular     float64
	Reflectivity float64
}

// XZRect lies in the plane y == Y.
type XZRect struct {
	X0, X1, Z0, Z1, Y float64

	Mtl          material.Func
	Specular     float64
	Reflectivity float64
}

// YZRect lies in the plane x == X.
type YZRect struct {
	Y0, Y1, Z0, Z1, X float64

	Mtl          material.Func
	Specular     float64
	Reflectivity float64
}

// axisRect is the shared form of the three rectangles: k is the normal axis,
// and a, b are the in-plane axes in the order the UV coordinates use.
type axisRect struct {
	k, a, b        int
	a0, a1, b0, b1 float64
	kv             float64
}

func (q axisRect) bounds() aabox.AABox {
	var lo, hi vec3.T
	lo[q.a], hi[q.a] = q.a0, q.a1
	lo[q.b], hi[q.b] = q.b0, q.b1
	lo[q.k], hi[q.k] = q.kv, q.kv
	var pad [3]bool
	pad[q.k] = true
	return aabox.FromCorners(lo, hi).Pad(Eps, pad)
}

func (q axisRect) hit(r ray.Ray, tMin, tMax float64, mtl material.Func, specular, reflectivity float64) (contact.Contact, bool) {
	if math.Abs(r.Slope[q.k]) < 1e-8 {
		return contact.Contact{}, false
	}

	t := (q.kv - r.Point[q.k]) / r.Slope[q.k]
	if t < tMin || t > tMax {
		return contact.Contact{}, false
	}

	pa := r.Point[q.a] + t*r.Slope[q.a]
	pb := r.Point[q.b] + t*r.Slope[q.b]
	if pa < q.a0 || pa > q.a1 || pb < q.b0 || pb > q.b1 {
		return contact.Contact{}, false
	}

	c := contact.Contact{
		T: t,
		P: r.Eval(t),
		U: (pa - q.a0) / (q.a1 - q.a0),
		V: (pb - q.b0) / (q.b1 - q.b0),
	}
	if r.Slope[q.k] < 0 {
		c.N[q.k] = 1
	} else {
		c.N[q.k] = -1
	}
	c.Mtl = material.Override(mtl(c.P, c.N, 0), specular, reflectivity)
	return c, true
}

func (q *XYRect) shape() axisRect {
	return axisRect{k: 2, a: 0, b: 1, a0: q.X0, a1: q.X1, b0: q.Y0, b1: q.Y1, kv: q.Z}
}

func (q *XYRect) Bounds() (aabox.AABox, bool) {
	return q.shape().bounds(), true
}

func (q *XYRect) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	return q.shape().hit(r, tMin, tMax, q.Mtl, q.Specular, q.Reflectivity)
}

func (q *XZRect) shape() axisRect {
	return axisRect{k: 1, a: 0, b: 2, a0: q.X0, a1: q.X1, b0: q.Z0, b1: q.Z1, kv: q.Y}
}

func (q *XZRect) Bounds() (aabox.AABox, bool) {
	return q.shape().bounds(), true
}

func (q *XZRect) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	return q.shape().hit(r, tMin, tMax, q.Mtl, q.Specular, q.Reflectivity)
}

func (q *YZRect) shape() axisRect {
	return axisRect{k: 0, a: 1, b: 2, a0: q.Y0, a1: q.Y1, b0: q.Z0, b1: q.Z1, kv: q.X}
}

func (q *YZRect) Bounds() (aabox.AABox, bool) {
	return q.shape().bounds(), true
}

func (q *YZRect) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	return q.shape().hit(r, tMin, tMax, q.Mtl, q.Specular, q.Reflectivity)
}

// Box is an axis-aligned box built from six rectangles.
type Box struct {
	Min, Max vec3.T

	faces [6]Hittable
}

func NewBox(min, max vec3.T, mtl material.Func, specular, reflectivity float64) *Box {
	return &Box{
		Min: min,
		Max: max,
		faces: [6]Hittable{
			&XYRect{X0: min[0], X1: max[0], Y0: min[1], Y1: max[1], Z: max[2], Mtl: mtl, Specular: specular, Reflectivity: reflectivity},
			&XYRect{X0: min[0], X1: max[0], Y0: min[1], Y1: max[1], Z: min[2], Mtl: mtl, Specular: specular, Reflectivity: reflectivity},
			&XZRect{X0: min[0], X1: max[0], Z0: min[2], Z1: max[2], Y: max[1], Mtl: mtl, Specular: specular, Reflectivity: reflectivity},
			&XZRect{X0: min[0], X1: max[0], Z0: min[2], Z1: max[2], Y: min[1], Mtl: mtl, Specular: specular, Reflectivity: reflectivity},
			&YZRect{Y0: min[1], Y1: max[1], Z0: min[2], Z1: max[2], X: max[0], Mtl: mtl, Specular: specular, Reflectivity: reflectivity},
			&YZRect{Y0: min[1], Y1: max[1], Z0: min[2], Z1: max[2], X: min[0], Mtl: mtl, Specular: specular, Reflectivity: reflectivity},
		},
	}
}

func (b *Box) Bounds() (aabox.AABox, bool) {
	return aabox.FromCorners(b.Min, b.Max), true
}

func (b *Box) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	closest := tMax
	var best contact.Contact
	hitAnything := false
	for _, f := range b.faces {
		if c, ok := f.Hit(r, tMin, closest); ok {
			hitAnything = true
			closest = c.T
			best = c
		}
	}
	return best, hitAnything
}
