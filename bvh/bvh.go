// Package bvh is a bounding volume hierarchy over geometry.Hittable values,
// built by recursive centroid-median splits on the widest centroid axis.
package bvh

import (
	"sort"

	"conray/aabox"
	"conray/contact"
	"conray/geometry"
	"conray/ray"
	"conray/vmath/vec3"
)

type element struct {
	ref      geometry.Hittable
	bounds   aabox.AABox
	centroid vec3.T
	id       int
}

// Node is either a leaf (Leaf != nil) or an interior node with at least one
// child.
type Node struct {
	Bounds aabox.AABox

	LoChild *Node
	HiChild *Node

	Leaf   geometry.Hittable
	LeafID int
}

// BVH is immutable once built.  Primitives without finite bounds, including
// ones whose box came out infinite or NaN, are kept aside and tested
// linearly after the tree.
type BVH struct {
	Root      *Node
	Unbounded []geometry.Hittable

	// Leaf ids of the unbounded primitives continue after the tree's.
	unboundedBaseID int
	nodeCount       int
	areaRatio       float64

	// Only the tests turn this on, to check that pruning against the left
	// hit never changes the answer.
	skipTighten bool
}

func New(objects []geometry.Hittable) *BVH {
	t := &BVH{}

	elements := []element{}
	for _, o := range objects {
		b, ok := o.Bounds()
		if !ok || !b.IsFinite() {
			t.Unbounded = append(t.Unbounded, o)
			continue
		}
		elements = append(elements, element{
			ref:      o,
			bounds:   b,
			centroid: b.Centroid(),
			id:       len(elements),
		})
	}

	t.unboundedBaseID = len(elements)
	t.Root = t.build(elements)
	if t.Root != nil {
		if rootArea := t.Root.Bounds.SurfaceArea(); rootArea > 0 {
			t.areaRatio = interiorArea(t.Root) / rootArea
		}
	}
	return t
}

func interiorArea(n *Node) float64 {
	if n == nil || n.Leaf != nil {
		return 0
	}
	return n.Bounds.SurfaceArea() + interiorArea(n.LoChild) + interiorArea(n.HiChild)
}

func (t *BVH) build(elements []element) *Node {
	if len(elements) == 0 {
		return nil
	}

	t.nodeCount++

	if len(elements) == 1 {
		return &Node{
			Bounds: elements[0].bounds,
			Leaf:   elements[0].ref,
			LeafID: elements[0].id,
		}
	}

	cMin := elements[0].centroid
	cMax := elements[0].centroid
	for _, e := range elements[1:] {
		cMin = vec3.MinVV(cMin, e.centroid)
		cMax = vec3.MaxVV(cMax, e.centroid)
	}
	ext := vec3.SubVV(cMax, cMin)

	// Widest centroid axis; ties go to the earlier axis.
	axis := 0
	if ext[1] > ext[0] && ext[1] >= ext[2] {
		axis = 1
	} else if ext[2] > ext[0] && ext[2] >= ext[1] {
		axis = 2
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].centroid[axis] < elements[j].centroid[axis]
	})

	mid := len(elements) >> 1
	node := &Node{
		LoChild: t.build(elements[:mid]),
		HiChild: t.build(elements[mid:]),
	}

	switch {
	case node.LoChild != nil && node.HiChild != nil:
		node.Bounds = aabox.MinContainingAABox(node.LoChild.Bounds, node.HiChild.Bounds)
	case node.LoChild != nil:
		node.Bounds = node.LoChild.Bounds
	default:
		node.Bounds = node.HiChild.Bounds
	}

	return node
}

// NodeCount is the number of tree nodes, leaves included.
func (t *BVH) NodeCount() int {
	return t.nodeCount
}

// AreaRatio is the summed surface area of the interior nodes over the root's.
// It estimates the interior boxes a random ray entering the root will test,
// so lower is a better tree.  Zero for an empty or flat tree.
func (t *BVH) AreaRatio() float64 {
	return t.areaRatio
}

// Bounds lets a BVH nest inside another.  A tree holding unbounded
// primitives has no finite box.
func (t *BVH) Bounds() (aabox.AABox, bool) {
	if t.Root == nil || len(t.Unbounded) != 0 {
		return aabox.AABox{}, false
	}
	return t.Root.Bounds, true
}

// Hit returns the nearest intersection in [tMin, tMax].
func (t *BVH) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	return t.hit(r, tMin, tMax, nil)
}

// HitTraced is Hit, additionally filling st with traversal counters.
func (t *BVH) HitTraced(r ray.Ray, tMin, tMax float64, st *contact.Stats) (contact.Contact, bool) {
	st.ThroughBVH = true
	return t.hit(r, tMin, tMax, st)
}

func (t *BVH) hit(r ray.Ray, tMin, tMax float64, st *contact.Stats) (contact.Contact, bool) {
	closest := tMax
	var best contact.Contact
	hitAnything := false

	if t.Root != nil {
		if c, ok := t.hitNode(t.Root, &r, tMin, closest, 0, st); ok {
			hitAnything = true
			closest = c.T
			best = c
		}
	}

	for i, u := range t.Unbounded {
		if st != nil {
			st.LeafTests++
		}
		c, ok := u.Hit(r, tMin, closest)
		if !ok {
			continue
		}
		hitAnything = true
		closest = c.T
		best = c
		if st != nil {
			st.LeafHits++
			st.LeafID = t.unboundedBaseID + i
		}
	}

	return best, hitAnything
}

func (t *BVH) hitNode(n *Node, r *ray.Ray, tMin, tMax float64, depth int, st *contact.Stats) (contact.Contact, bool) {
	if st != nil {
		st.NodeVisits++
		st.AABoxTests++
	}

	if !aabox.RayHits(r, &n.Bounds, tMin, tMax) {
		if st != nil {
			st.Misses++
		}
		return contact.Contact{}, false
	}

	if n.Leaf != nil {
		if st != nil {
			st.LeafTests++
		}
		c, ok := n.Leaf.Hit(*r, tMin, tMax)
		if ok && st != nil {
			st.LeafHits++
			st.LeafID = n.LeafID
			st.HitDepth = depth
		}
		return c, ok
	}

	var lo, hi contact.Contact
	hitLo, hitHi := false, false

	if n.LoChild != nil {
		lo, hitLo = t.hitNode(n.LoChild, r, tMin, tMax, depth+1, st)
		if hitLo && !t.skipTighten {
			tMax = lo.T
		}
	}

	if n.HiChild != nil {
		hi, hitHi = t.hitNode(n.HiChild, r, tMin, tMax, depth+1, st)
	}

	switch {
	case hitLo && hitHi:
		if hi.T < lo.T {
			return hi, true
		}
		return lo, true
	case hitLo:
		return lo, true
	case hitHi:
		return hi, true
	}
	return contact.Contact{}, false
}
