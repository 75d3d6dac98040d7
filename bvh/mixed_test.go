package bvh_test

import (
	"math"
	"math/rand"
	"testing"

	"conray/bvh"
	"conray/contact"
	"conray/geometry"
	"conray/material"
	"conray/mesh"
	"conray/ray"
	"conray/rng"
	"conray/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mtlID(i int) material.Material {
	return material.Material{Albedo: vec3.T{float64(i), 0, 0}}
}

func uniformVec(r *rand.Rand, lo, hi float64) vec3.T {
	return vec3.T{
		lo + (hi-lo)*r.Float64(),
		lo + (hi-lo)*r.Float64(),
		lo + (hi-lo)*r.Float64(),
	}
}

// mixedScene holds one of every primitive kind, including composites that
// carry their own acceleration structure.
func mixedScene(r *rand.Rand, n int) []geometry.Hittable {
	objs := []geometry.Hittable{}
	for i := 0; i < n; i++ {
		id := len(objs)
		c := uniformVec(r, -10, 10)
		switch i % 7 {
		case 0:
			objs = append(objs, geometry.NewDisk(c, uniformVec(r, -1, 1), 0.3+r.Float64(), material.Constant(mtlID(id)), 0, 0))
		case 1:
			objs = append(objs, &geometry.YZRect{Y0: c[1], Y1: c[1] + 1.5, Z0: c[2], Z1: c[2] + 1, X: c[0], Mtl: material.Constant(mtlID(id))})
		case 2:
			objs = append(objs, &geometry.XYRect{X0: c[0], X1: c[0] + 1, Y0: c[1], Y1: c[1] + 2, Z: c[2], Mtl: material.Constant(mtlID(id))})
		case 3:
			objs = append(objs, &geometry.XZRect{X0: c[0], X1: c[0] + 2, Z0: c[2], Z1: c[2] + 1, Y: c[1], Mtl: material.Constant(mtlID(id))})
		case 4:
			g := geometry.NewVolumeGrid(4, 3, 4, c, vec3.T{0.4, 0.4, 0.4}, func(matID, metaID int) material.Material {
				return mtlID(id)
			})
			for x := 0; x < 4; x++ {
				for z := 0; z < 4; z++ {
					if r.Float64() < 0.5 {
						g.Set(x, r.Intn(3), z, geometry.Cell{MatID: 1})
					}
				}
			}
			objs = append(objs, g)
		case 5:
			tris := []*geometry.Triangle{}
			for j := 0; j < 4; j++ {
				a := vec3.AddVV(c, uniformVec(r, -1, 1))
				tris = append(tris, &geometry.Triangle{
					A:   a,
					B:   vec3.AddVV(a, uniformVec(r, -1.5, 1.5)),
					C:   vec3.AddVV(a, uniformVec(r, -1.5, 1.5)),
					Mtl: mtlID(id),
				})
			}
			objs = append(objs, mesh.New(tris))
		case 6:
			objs = append(objs, bvh.List{
				&geometry.Sphere{Center: c, Radius: 0.2 + 0.5*r.Float64(), Mtl: mtlID(id)},
				&geometry.Sphere{Center: vec3.AddVV(c, uniformVec(r, -2, 2)), Radius: 0.2 + 0.5*r.Float64(), Mtl: mtlID(id)},
			})
		}
	}
	objs = append(objs, geometry.NewPlane(vec3.T{0, -12, 0}, vec3.T{0, 1, 0}, material.Constant(mtlID(len(objs))), 0, 0))
	return objs
}

type hitResult struct {
	Hit bool
	T   float64
	P   vec3.T
	N   vec3.T
	ID  float64
}

func toResult(c contact.Contact, ok bool) hitResult {
	if !ok {
		return hitResult{}
	}
	return hitResult{Hit: true, T: c.T, P: c.P, N: c.N, ID: c.Mtl.Albedo[0]}
}

func TestMixedPrimitivesMatchLinearScan(t *testing.T) {
	r := rng.New(20240607)
	objs := mixedScene(r, 140)

	tree := bvh.New(objs)
	if len(tree.Unbounded) != 1 {
		t.Fatalf("Got %d unbounded primitives, want only the plane", len(tree.Unbounded))
	}
	ref := bvh.List(objs)

	hits := 0
	for i := 0; i < 3000; i++ {
		ry := ray.New(uniformVec(r, -14, 14), uniformVec(r, -1, 1))
		got := toResult(tree.Hit(ry, 0.001, math.MaxFloat64))
		want := toResult(ref.Hit(ry, 0.001, math.MaxFloat64))
		if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Fatalf("Ray %d %+v: tree and linear scan disagree; diff (-got +want)\n%s", i, ry, diff)
		}
		if got.Hit {
			hits++
		}
	}
	if hits == 0 {
		t.Fatalf("No ray hit anything")
	}
}
