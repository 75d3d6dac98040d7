package integrator

import (
	"math"

	"conray/contact"
	"conray/ray"
	"conray/scene"
	"conray/vmath/vec3"
)

// DebugView replaces shading with a visualization of BVH traversal.
type DebugView int

const (
	None DebugView = iota
	TraversalHeat
	DepthFalseColor
	LeafID
)

// ClampDebugView maps any integer onto a valid view.
func ClampDebugView(mode int) DebugView {
	if mode < int(None) {
		return None
	}
	if mode > int(LeafID) {
		return LeafID
	}
	return DebugView(mode)
}

func (v DebugView) String() string {
	switch v {
	case None:
		return "none"
	case TraversalHeat:
		return "traversal-heat"
	case DepthFalseColor:
		return "depth"
	case LeafID:
		return "leaf-id"
	}
	return "unknown"
}

// MinDebugScale is the floor applied to the traversal heat scale.
const MinDebugScale = 1e-4

// TraceDebug colours the primary hit of r by the selected view.  Misses are
// black.  view must not be None.
func TraceDebug(snap *scene.Snapshot, r ray.Ray, view DebugView, scale float64) vec3.T {
	var st contact.Stats
	if _, ok := snap.HitTraced(r, PrimaryTMin, math.MaxFloat64, &st); !ok {
		return vec3.Zero
	}
	return DebugColor(&st, view, scale)
}

func DebugColor(st *contact.Stats, view DebugView, scale float64) vec3.T {
	if !st.ThroughBVH {
		return vec3.Zero
	}

	switch view {
	case TraversalHeat:
		t := 1 - math.Exp(-math.Max(0, float64(st.AABoxTests))*math.Max(1e-5, scale))
		return vec3.T{t, t * 0.55, 1 - t*0.85}
	case DepthFalseColor:
		return HSVToRGB(float64(st.HitDepth%64)/64, 0.9, 1)
	case LeafID:
		return HashToRGB(st.LeafID)
	}
	return vec3.Zero
}

// HSVToRGB takes h in turns; any real h wraps into [0, 1).
func HSVToRGB(h, s, v float64) vec3.T {
	c := v * s
	hh := (h - math.Floor(h)) * 6
	x := c * (1 - math.Abs(math.Mod(hh, 2)-1))

	var r, g, b float64
	switch {
	case hh < 1:
		r, g, b = c, x, 0
	case hh < 2:
		r, g, b = x, c, 0
	case hh < 3:
		r, g, b = 0, c, x
	case hh < 4:
		r, g, b = 0, x, c
	case hh < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := v - c
	return vec3.T{r + m, g + m, b + m}
}

// HashToRGB spreads neighbouring ids to unrelated colours.
func HashToRGB(id int) vec3.T {
	x := uint32(id)
	x ^= x >> 17
	x *= 0xED5AD4BB
	x ^= x >> 11
	x *= 0xAC4C1B51
	x ^= x >> 15
	x *= 0x31848BAB
	x ^= x >> 14
	return vec3.T{
		float64(x&0xFF) / 255,
		float64((x>>8)&0xFF) / 255,
		float64((x>>16)&0xFF) / 255,
	}
}
