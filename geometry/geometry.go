// Package geometry holds the closed set of intersectable primitives.  Every
// primitive answers two questions: where a ray first hits it, and what box
// bounds it.
package geometry

import (
	"conray/aabox"
	"conray/contact"
	"conray/ray"
)

// Eps pads the bounds of zero-thickness primitives so the slab test never
// sees a degenerate box.
const Eps = 1e-4

type Hittable interface {
	// Hit returns the nearest intersection with t in [tMin, tMax].
	Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool)

	// Bounds returns a finite bounding box, or false for primitives with no
	// finite extent.
	Bounds() (aabox.AABox, bool)
}
