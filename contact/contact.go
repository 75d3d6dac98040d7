package contact

import (
	"conray/material"
	"conray/vmath/vec3"
)

// Contact is the result of a successful ray/primitive intersection.  N always
// faces against the incoming ray.
type Contact struct {
	T   float64
	P   vec3.T
	N   vec3.T
	Mtl material.Material

	// Surface parametrization, where the primitive has one.
	U, V float64
}

// Stats collects traversal counters for the debug views.  It is only ever
// threaded through the traced BVH path; shading never looks at it.
type Stats struct {
	NodeVisits int
	AABoxTests int
	Misses     int
	LeafTests  int
	LeafHits   int
	HitDepth   int

	// LeafID identifies the primitive that produced the final hit.
	LeafID int

	// ThroughBVH is set once the query has gone through a BVH at all.
	ThroughBVH bool
}
