// Package scene holds the mutable description of what is being rendered and
// the immutable snapshots the renderer actually traces against.
package scene

import (
	"sync/atomic"

	"conray/bvh"
	"conray/camera"
	"conray/contact"
	"conray/geometry"
	"conray/light"
	"conray/ray"
	"conray/vmath/vec3"
)

// ShadowTMin is the near end of every shadow ray.
const ShadowTMin = 0.001

// Scene is edited by a single owner.  Edits become visible to renderers only
// after RebuildBVH publishes a new Snapshot.
type Scene struct {
	Objects []geometry.Hittable
	Lights  []light.Point
	Ambient light.Ambient

	BackgroundTop    vec3.T
	BackgroundBottom vec3.T

	DefaultFov  float64
	DefaultPose camera.Pose

	current atomic.Pointer[Snapshot]
}

func New() *Scene {
	return &Scene{
		Ambient:          light.Ambient{Color: vec3.T{1, 1, 1}, Intensity: 0.075},
		BackgroundTop:    vec3.T{0.6, 0.8, 1.0},
		BackgroundBottom: vec3.T{1, 1, 1},
		DefaultFov:       30,
		DefaultPose:      camera.Pose{Position: vec3.T{0, 1, 0}},
	}
}

func (s *Scene) Add(objs ...geometry.Hittable) {
	s.Objects = append(s.Objects, objs...)
}

func (s *Scene) AddLight(l light.Point) {
	s.Lights = append(s.Lights, l)
}

// RebuildBVH builds a tree over the current objects and publishes it, along
// with copies of the lights and background, as the current snapshot.
// Renderers already holding the previous snapshot keep using it.
func (s *Scene) RebuildBVH() *Snapshot {
	objs := make([]geometry.Hittable, len(s.Objects))
	copy(objs, s.Objects)
	lights := make([]light.Point, len(s.Lights))
	copy(lights, s.Lights)

	snap := &Snapshot{
		tree:             bvh.New(objs),
		Lights:           lights,
		Ambient:          s.Ambient,
		BackgroundTop:    s.BackgroundTop,
		BackgroundBottom: s.BackgroundBottom,
	}
	s.current.Store(snap)
	return snap
}

// Snapshot returns the most recently built snapshot, or nil if RebuildBVH has
// never been called.
func (s *Scene) Snapshot() *Snapshot {
	return s.current.Load()
}

func (s *Scene) mustSnapshot() *Snapshot {
	snap := s.current.Load()
	if snap == nil {
		panic("scene: BVH not built; call RebuildBVH after populating Objects")
	}
	return snap
}

func (s *Scene) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	return s.mustSnapshot().Hit(r, tMin, tMax)
}

func (s *Scene) Occluded(r ray.Ray, maxDist float64) bool {
	return s.mustSnapshot().Occluded(r, maxDist)
}

// Snapshot is never modified after RebuildBVH returns it, so any number of
// goroutines may trace against it.
type Snapshot struct {
	tree *bvh.BVH

	Lights  []light.Point
	Ambient light.Ambient

	BackgroundTop    vec3.T
	BackgroundBottom vec3.T
}

func (s *Snapshot) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	return s.tree.Hit(r, tMin, tMax)
}

func (s *Snapshot) HitTraced(r ray.Ray, tMin, tMax float64, st *contact.Stats) (contact.Contact, bool) {
	return s.tree.HitTraced(r, tMin, tMax, st)
}

// Occluded reports whether anything lies along r in [ShadowTMin, maxDist].
// Callers pass the light distance already shortened by their own epsilon.
func (s *Snapshot) Occluded(r ray.Ray, maxDist float64) bool {
	_, ok := s.tree.Hit(r, ShadowTMin, maxDist)
	return ok
}

// Background blends bottom to top by the vertical component of the (unit)
// direction.
func (s *Snapshot) Background(dir vec3.T) vec3.T {
	t := 0.5 * (dir[1] + 1)
	return vec3.Lerp(s.BackgroundBottom, s.BackgroundTop, t)
}

func (s *Snapshot) NodeCount() int {
	return s.tree.NodeCount()
}

func (s *Snapshot) AreaRatio() float64 {
	return s.tree.AreaRatio()
}
