package bvh

import (
	"conray/aabox"
	"conray/contact"
	"conray/geometry"
	"conray/ray"
)

// List tests every primitive in order.  It is the reference the tree is
// checked against.
type List []geometry.Hittable

func (l List) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	closest := tMax
	var best contact.Contact
	hitAnything := false
	for _, h := range l {
		if c, ok := h.Hit(r, tMin, closest); ok {
			hitAnything = true
			closest = c.T
			best = c
		}
	}
	return best, hitAnything
}

func (l List) Bounds() (aabox.AABox, bool) {
	if len(l) == 0 {
		return aabox.AABox{}, false
	}
	box := aabox.AccumZeroAABox()
	for _, h := range l {
		b, ok := h.Bounds()
		if !ok {
			return aabox.AABox{}, false
		}
		box = aabox.MinContainingAABox(box, b)
	}
	return box, true
}
