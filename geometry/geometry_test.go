package geometry

import (
	"math"
	"testing"

	"conray/aabox"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

var gray = material.Material{Albedo: vec3.T{0.5, 0.5, 0.5}}

func TestSphereScenarios(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1, Mtl: gray}

	c, ok := s.Hit(ray.New(vec3.T{0, 0, 5}, vec3.T{0, 0, -1}), 0.001, math.MaxFloat64)
	if !ok {
		t.Fatalf("Expected a hit")
	}
	got := []vec3.T{{c.T, 0, 0}, c.P, c.N}
	want := []vec3.T{{4, 0, 0}, {0, 0, 1}, {0, 0, 1}}
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Fatalf("Bad contact (t, P, N); diff (-got +want)\n%s", diff)
	}

	if _, ok := s.Hit(ray.New(vec3.T{0, 0, 5}, vec3.T{0, 1, 0}), 0.001, math.MaxFloat64); ok {
		t.Fatalf("Ray parallel to the sphere should miss")
	}

	if _, ok := s.Hit(ray.New(vec3.T{0, 1 + 1e-6, 5}, vec3.T{0, 0, -1}), 0.001, math.MaxFloat64); ok {
		t.Fatalf("Ray passing just above the sphere should miss")
	}
}

func TestSphereNearestRoot(t *testing.T) {
	s := &Sphere{Center: vec3.T{0, 0, 0}, Radius: 1, Mtl: gray}
	r := ray.New(vec3.T{0, 0, 5}, vec3.T{0, 0, -1})

	testCases := []struct {
		desc       string
		tMin, tMax float64
		wantOK     bool
		wantT      float64
		wantN      vec3.T
	}{
		{"near-root", 0.001, 100, true, 4, vec3.T{0, 0, 1}},
		{"near-root-excluded", 4.5, 100, true, 6, vec3.T{0, 0, 1}},
		{"both-excluded", 6.5, 100, false, 0, vec3.T{}},
		{"too-short", 0.001, 3, false, 0, vec3.T{}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c, ok := s.Hit(r, tc.tMin, tc.tMax)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff([]float64{c.T}, []float64{tc.wantT}, approx); diff != "" {
				t.Errorf("Bad t; diff (-got +want)\n%s", diff)
			}
			// From inside, the normal still faces the ray.
			if diff := cmp.Diff(c.N, tc.wantN, approx); diff != "" {
				t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestPlane(t *testing.T) {
	checker := material.Checker(vec3.T{1, 1, 1}, vec3.T{0, 0, 0}, 1)
	p := NewPlane(vec3.T{0, 0, 0}, vec3.T{0, 2, 0}, checker, 0.1, 0.3)

	if _, ok := p.Bounds(); ok {
		t.Fatalf("Plane must be unbounded")
	}

	c, ok := p.Hit(ray.New(vec3.T{0.5, 2, 0.5}, vec3.T{0, -1, 0}), 0.001, 100)
	if !ok {
		t.Fatalf("Expected a hit from above")
	}
	if diff := cmp.Diff(c.N, vec3.T{0, 1, 0}); diff != "" {
		t.Errorf("Bad normal from above; diff (-got +want)\n%s", diff)
	}
	want := material.Material{Albedo: vec3.T{1, 1, 1}, Specular: 0.1, Reflectivity: 0.3}
	if diff := cmp.Diff(c.Mtl, want); diff != "" {
		t.Errorf("Bad material; diff (-got +want)\n%s", diff)
	}

	c, ok = p.Hit(ray.New(vec3.T{0.5, -2, 0.5}, vec3.T{0, 1, 0}), 0.001, 100)
	if !ok {
		t.Fatalf("Expected a hit from below")
	}
	if diff := cmp.Diff(c.N, vec3.T{0, -1, 0}); diff != "" {
		t.Errorf("Bad normal from below; diff (-got +want)\n%s", diff)
	}

	if _, ok := p.Hit(ray.New(vec3.T{0, 1, 0}, vec3.T{1, 1e-7, 0}), 0.001, 100); ok {
		t.Errorf("Grazing ray should be rejected")
	}
}

func TestDisk(t *testing.T) {
	d := NewDisk(vec3.T{0, 0, -3}, vec3.T{0, 0, 1}, 1, material.Solid(vec3.T{1, 0, 0}), 0, 0)

	if _, ok := d.Hit(ray.New(vec3.T{0.5, 0.5, 0}, vec3.T{0, 0, -1}), 0.001, 100); !ok {
		t.Errorf("Expected a hit inside the radius")
	}
	if _, ok := d.Hit(ray.New(vec3.T{0.9, 0.9, 0}, vec3.T{0, 0, -1}), 0.001, 100); ok {
		t.Errorf("Expected a miss outside the radius")
	}

	b, ok := d.Bounds()
	if !ok {
		t.Fatalf("Disk must be bounded")
	}
	if diff := cmp.Diff(b, aabox.FromCorners(vec3.T{-1, -1, -4}, vec3.T{1, 1, -2})); diff != "" {
		t.Errorf("Bad bounds; diff (-got +want)\n%s", diff)
	}
}

func TestRects(t *testing.T) {
	solid := material.Solid(vec3.T{1, 1, 1})

	testCases := []struct {
		desc  string
		h     Hittable
		r     ray.Ray
		wantN vec3.T
		wantU float64
		wantV float64
	}{
		{
			desc:  "xy-front",
			h:     &XYRect{X0: 0, X1: 2, Y0: 0, Y1: 4, Z: -1, Mtl: solid},
			r:     ray.New(vec3.T{0.5, 1, 5}, vec3.T{0, 0, -1}),
			wantN: vec3.T{0, 0, 1},
			wantU: 0.25,
			wantV: 0.25,
		},
		{
			desc:  "xz-below",
			h:     &XZRect{X0: -1, X1: 1, Z0: -1, Z1: 1, Y: 3, Mtl: solid},
			r:     ray.New(vec3.T{0, 0, 0.5}, vec3.T{0, 1, 0}),
			wantN: vec3.T{0, -1, 0},
			wantU: 0.5,
			wantV: 0.75,
		},
		{
			desc:  "yz-left",
			h:     &YZRect{Y0: 0, Y1: 1, Z0: 0, Z1: 1, X: 2, Mtl: solid},
			r:     ray.New(vec3.T{0, 0.5, 0.5}, vec3.T{1, 0, 0}),
			wantN: vec3.T{-1, 0, 0},
			wantU: 0.5,
			wantV: 0.5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c, ok := tc.h.Hit(tc.r, 0.001, 100)
			if !ok {
				t.Fatalf("Expected a hit")
			}
			if diff := cmp.Diff(c.N, tc.wantN); diff != "" {
				t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff([]float64{c.U, c.V}, []float64{tc.wantU, tc.wantV}, approx); diff != "" {
				t.Errorf("Bad UV; diff (-got +want)\n%s", diff)
			}
		})
	}

	xy := &XYRect{X0: 0, X1: 1, Y0: 0, Y1: 1, Z: 0, Mtl: solid}
	if _, ok := xy.Hit(ray.New(vec3.T{2, 0.5, 1}, vec3.T{0, 0, -1}), 0.001, 100); ok {
		t.Errorf("Expected a miss outside the rectangle")
	}
	if _, ok := xy.Hit(ray.New(vec3.T{0.5, 0.5, 1}, vec3.T{1, 0, 0}), 0.001, 100); ok {
		t.Errorf("Expected a miss for a ray inside the rectangle's plane")
	}

	b, _ := xy.Bounds()
	want := aabox.FromCorners(vec3.T{0, 0, -Eps}, vec3.T{1, 1, Eps})
	if diff := cmp.Diff(b, want); diff != "" {
		t.Errorf("Bad padded bounds; diff (-got +want)\n%s", diff)
	}
}

func TestBoxPicksNearestFace(t *testing.T) {
	b := NewBox(vec3.T{-1, -1, -1}, vec3.T{1, 1, 1}, material.Solid(vec3.T{1, 1, 1}), 0, 0)

	c, ok := b.Hit(ray.New(vec3.T{0.2, 0.3, 10}, vec3.T{0, 0, -1}), 0.001, 100)
	if !ok {
		t.Fatalf("Expected a hit")
	}
	if diff := cmp.Diff([]float64{c.T}, []float64{9}, approx); diff != "" {
		t.Errorf("Bad t; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(c.N, vec3.T{0, 0, 1}); diff != "" {
		t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
	}

	c, ok = b.Hit(ray.New(vec3.T{-10, 0, 0}, vec3.T{1, 0, 0}), 0.001, 100)
	if !ok || math.Abs(c.T-9) > 1e-9 {
		t.Errorf("Expected the -X face at t=9, got ok=%v t=%v", ok, c.T)
	}
}

func TestTriangle(t *testing.T) {
	tri := &Triangle{A: vec3.T{0, 0, 0}, B: vec3.T{1, 0, 0}, C: vec3.T{0, 1, 0}, Mtl: gray}

	c, ok := tri.Hit(ray.New(vec3.T{0.25, 0.25, 1}, vec3.T{0, 0, -1}), 0.001, 100)
	if !ok {
		t.Fatalf("Expected a hit")
	}
	if diff := cmp.Diff([]float64{c.T, c.U, c.V}, []float64{1, 0.25, 0.25}, approx); diff != "" {
		t.Errorf("Bad t/u/v; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(c.N, vec3.T{0, 0, 1}); diff != "" {
		t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
	}

	c, ok = tri.Hit(ray.New(vec3.T{0.25, 0.25, -1}, vec3.T{0, 0, 1}), 0.001, 100)
	if !ok {
		t.Fatalf("Expected a hit from the back")
	}
	if diff := cmp.Diff(c.N, vec3.T{0, 0, -1}); diff != "" {
		t.Errorf("Bad back normal; diff (-got +want)\n%s", diff)
	}

	if _, ok := tri.Hit(ray.New(vec3.T{0.75, 0.75, 1}, vec3.T{0, 0, -1}), 0.001, 100); ok {
		t.Errorf("Expected a miss outside the hypotenuse")
	}
	if _, ok := tri.Hit(ray.New(vec3.T{0, 0, 1}, vec3.T{1, 0, 0}), 0.001, 100); ok {
		t.Errorf("Expected a miss for a ray parallel to the triangle")
	}
}

func TestCylinder(t *testing.T) {
	cy := NewCylinderY(vec3.T{0, 0, 0}, 1, 2, 0, true, gray)

	testCases := []struct {
		desc   string
		r      ray.Ray
		wantOK bool
		wantT  float64
		wantN  vec3.T
	}{
		{"side", ray.New(vec3.T{5, 1, 0}, vec3.T{-1, 0, 0}), true, 4, vec3.T{1, 0, 0}},
		{"above-side", ray.New(vec3.T{5, 3, 0}, vec3.T{-1, 0, 0}), false, 0, vec3.T{}},
		{"top-cap", ray.New(vec3.T{0.2, 5, 0.2}, vec3.T{0, -1, 0}), true, 3, vec3.T{0, 1, 0}},
		{"bottom-cap", ray.New(vec3.T{0.2, -5, 0.2}, vec3.T{0, 1, 0}), true, 5, vec3.T{0, -1, 0}},
		{"inside-out", ray.New(vec3.T{0, 1, 0}, vec3.T{0, 0, 1}), true, 1, vec3.T{0, 0, -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c, ok := cy.Hit(tc.r, 0.001, 100)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff([]float64{c.T}, []float64{tc.wantT}, approx); diff != "" {
				t.Errorf("Bad t; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(c.N, tc.wantN, approx); diff != "" {
				t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
			}
		})
	}

	b, _ := cy.Bounds()
	if diff := cmp.Diff(b, aabox.FromCorners(vec3.T{-1, 0, -1}, vec3.T{1, 2, 1})); diff != "" {
		t.Errorf("Bad bounds; diff (-got +want)\n%s", diff)
	}
}

func testGrid() *VolumeGrid {
	lookup := func(matID, metaID int) material.Material {
		return material.Material{Albedo: vec3.T{float64(matID), float64(metaID), 0}}
	}
	g := NewVolumeGrid(4, 4, 4, vec3.T{0, 0, 0}, vec3.T{1, 1, 1}, lookup)
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			g.Set(x, 0, z, Cell{MatID: 1})
		}
	}
	g.Set(2, 1, 2, Cell{MatID: 2, MetaID: 7})
	return g
}

func TestVolumeGrid(t *testing.T) {
	g := testGrid()

	testCases := []struct {
		desc    string
		r       ray.Ray
		wantOK  bool
		wantT   float64
		wantN   vec3.T
		wantMtl vec3.T
	}{
		{"floor-from-above", ray.New(vec3.T{0.5, 10, 0.5}, vec3.T{0, -1, 0}), true, 9, vec3.T{0, 1, 0}, vec3.T{1, 0, 0}},
		{"pillar-top", ray.New(vec3.T{2.5, 10, 2.5}, vec3.T{0, -1, 0}), true, 8, vec3.T{0, 1, 0}, vec3.T{2, 7, 0}},
		{"pillar-side", ray.New(vec3.T{-3, 1.5, 2.5}, vec3.T{1, 0, 0}), true, 5, vec3.T{-1, 0, 0}, vec3.T{2, 7, 0}},
		{"empty-row", ray.New(vec3.T{-3, 1.5, 0.5}, vec3.T{1, 0, 0}), false, 0, vec3.T{}, vec3.T{}},
		{"outside", ray.New(vec3.T{-3, 10, 0.5}, vec3.T{1, 0, 0}), false, 0, vec3.T{}, vec3.T{}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c, ok := g.Hit(tc.r, 0.001, 100)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff([]float64{c.T}, []float64{tc.wantT}, approx); diff != "" {
				t.Errorf("Bad t; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(c.N, tc.wantN); diff != "" {
				t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
			}
			if diff := cmp.Diff(c.Mtl.Albedo, tc.wantMtl); diff != "" {
				t.Errorf("Bad material; diff (-got +want)\n%s", diff)
			}
		})
	}

	if _, ok := g.Hit(ray.New(vec3.T{2.5, 10, 2.5}, vec3.T{0, -1, 0}), 0.001, 5); ok {
		t.Errorf("Hit beyond tMax should be rejected")
	}
}

// Leaving a surface along its normal from the biased origin must not hit the
// same surface again.
func TestNoSelfIntersection(t *testing.T) {
	solid := material.Solid(vec3.T{1, 1, 1})

	testCases := []struct {
		desc string
		h    Hittable
		r    ray.Ray
	}{
		{"sphere", &Sphere{Center: vec3.T{0, 0, -3}, Radius: 1, Mtl: gray}, ray.New(vec3.T{0.3, 0.2, 0}, vec3.T{0, 0, -1})},
		{"plane", NewPlane(vec3.T{0, 0, 0}, vec3.T{0, 1, 0}, solid, 0, 0), ray.New(vec3.T{0, 2, 0}, vec3.T{0.3, -1, 0.2})},
		{"disk", NewDisk(vec3.T{0, 0, -3}, vec3.T{0, 0, 1}, 2, solid, 0, 0), ray.New(vec3.T{0.3, 0.2, 0}, vec3.T{0, 0, -1})},
		{"xyrect", &XYRect{X0: -1, X1: 1, Y0: -1, Y1: 1, Z: -3, Mtl: solid}, ray.New(vec3.T{0.3, 0.2, 0}, vec3.T{0, 0, -1})},
		{"xzrect", &XZRect{X0: -1, X1: 1, Z0: -1, Z1: 1, Y: 0, Mtl: solid}, ray.New(vec3.T{0.3, 2, 0.2}, vec3.T{0, -1, 0})},
		{"yzrect", &YZRect{Y0: -1, Y1: 1, Z0: -1, Z1: 1, X: 0, Mtl: solid}, ray.New(vec3.T{2, 0.3, 0.2}, vec3.T{-1, 0, 0})},
		{"box", NewBox(vec3.T{-1, -1, -4}, vec3.T{1, 1, -2}, solid, 0, 0), ray.New(vec3.T{0.3, 0.2, 0}, vec3.T{0, 0, -1})},
		{"triangle", &Triangle{A: vec3.T{-1, -1, -3}, B: vec3.T{1, -1, -3}, C: vec3.T{0, 1, -3}, Mtl: gray}, ray.New(vec3.T{0, 0, 0}, vec3.T{0, 0, -1})},
		{"cylinder", NewCylinderY(vec3.T{0, 0, -3}, 1, -1, 1, true, gray), ray.New(vec3.T{0.3, 0.2, 0}, vec3.T{0, 0, -1})},
		{"cylinder-cap", NewCylinderY(vec3.T{0, 0, 0}, 1, -1, 1, true, gray), ray.New(vec3.T{0.3, 4, 0.2}, vec3.T{0, -1, 0})},
		{"volume", testGrid(), ray.New(vec3.T{0.5, 10, 0.5}, vec3.T{0, -1, 0})},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c, ok := tc.h.Hit(tc.r, 0.001, math.MaxFloat64)
			if !ok {
				t.Fatalf("Expected a primary hit")
			}
			if vec3.IProd(c.N, tc.r.Slope) >= 0 {
				t.Fatalf("Normal %v does not face the ray %v", c.N, tc.r.Slope)
			}
			bounce := ray.New(vec3.AddVV(c.P, vec3.MulVS(c.N, 1e-4)), c.N)
			if again, ok := tc.h.Hit(bounce, 0.001, math.MaxFloat64); ok {
				t.Fatalf("Self-intersection at t=%v (P=%v)", again.T, again.P)
			}
		})
	}
}
