package geometry

import (
	"math"

	"conray/aabox"
	"conray/contact"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"
)

// CylinderY is a cylinder whose axis runs parallel to Y through Center.  Only
// the X and Z components of Center are used; YMin and YMax bound the side.
type CylinderY struct {
	Center     vec3.T
	Radius     float64
	YMin, YMax float64
	Capped     bool
	Mtl        material.Material
}

func NewCylinderY(center vec3.T, radius, yMin, yMax float64, capped bool, mtl material.Material) *CylinderY {
	return &CylinderY{
		Center: center,
		Radius: radius,
		YMin:   math.Min(yMin, yMax),
		YMax:   math.Max(yMin, yMax),
		Capped: capped,
		Mtl:    mtl,
	}
}

func (cy *CylinderY) Bounds() (aabox.AABox, bool) {
	return aabox.FromCorners(
		vec3.T{cy.Center[0] - cy.Radius, cy.YMin, cy.Center[2] - cy.Radius},
		vec3.T{cy.Center[0] + cy.Radius, cy.YMax, cy.Center[2] + cy.Radius},
	), true
}

func (cy *CylinderY) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	hitT := math.MaxFloat64
	var hitN vec3.T
	hit := false

	ox := r.Point[0] - cy.Center[0]
	oz := r.Point[2] - cy.Center[2]
	dx := r.Slope[0]
	dz := r.Slope[2]

	// Side.  A ray running straight along Y never meets it.
	a := dx*dx + dz*dz
	if a > 1e-12 {
		b := 2 * (ox*dx + oz*dz)
		c := ox*ox + oz*oz - cy.Radius*cy.Radius
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
				if t <= tMin || t >= tMax {
					continue
				}
				y := r.Point[1] + t*r.Slope[1]
				if y < cy.YMin || y > cy.YMax {
					continue
				}
				p := r.Eval(t)
				hitT = t
				hitN = vec3.Normalize(vec3.T{(p[0] - cy.Center[0]) / cy.Radius, 0, (p[2] - cy.Center[2]) / cy.Radius})
				hit = true
				break
			}
		}
	}

	if cy.Capped && math.Abs(r.Slope[1]) > 1e-8 {
		caps := [2]struct {
			y float64
			n vec3.T
		}{
			{cy.YMax, vec3.T{0, 1, 0}},
			{cy.YMin, vec3.T{0, -1, 0}},
		}
		for _, cp := range caps {
			t := (cp.y - r.Point[1]) / r.Slope[1]
			if t <= tMin || t >= tMax || t >= hitT {
				continue
			}
			p := r.Eval(t)
			ddx := p[0] - cy.Center[0]
			ddz := p[2] - cy.Center[2]
			if ddx*ddx+ddz*ddz > cy.Radius*cy.Radius {
				continue
			}
			hitT = t
			hitN = cp.n
			hit = true
		}
	}

	if !hit {
		return contact.Contact{}, false
	}

	return contact.Contact{
		T:   hitT,
		P:   r.Eval(hitT),
		N:   vec3.FaceForward(hitN, r.Slope),
		Mtl: cy.Mtl,
	}, true
}
