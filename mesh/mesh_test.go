package mesh

import (
	"math"
	"strings"
	"testing"

	"conray/geometry"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var red = material.Material{Albedo: vec3.T{1, 0, 0}}

const quadOBJ = `# unit quad in the z=0 plane
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
f 1/1/1 2/1/1 3/1/1 4/1/1
`

func TestParseOBJ(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(quadOBJ), red, 2, vec3.T{10, 0, 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []*geometry.Triangle{
		{A: vec3.T{10, 0, 0}, B: vec3.T{12, 0, 0}, C: vec3.T{12, 2, 0}, Mtl: red},
		{A: vec3.T{10, 0, 0}, B: vec3.T{12, 2, 0}, C: vec3.T{10, 2, 0}, Mtl: red},
	}
	if diff := cmp.Diff(m.Triangles, want); diff != "" {
		t.Fatalf("Bad triangles; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff([]vec3.T{m.Min, m.Max}, []vec3.T{{10, 0, 0}, {12, 2, 0}}); diff != "" {
		t.Errorf("Bad vertex bounds; diff (-got +want)\n%s", diff)
	}

	c, ok := m.Hit(ray.New(vec3.T{11.5, 0.5, 5}, vec3.T{0, 0, -1}), 0.001, math.MaxFloat64)
	if !ok {
		t.Fatalf("Ray through the quad missed")
	}
	if diff := cmp.Diff([]vec3.T{c.P, c.N}, []vec3.T{{11.5, 0.5, 0}, {0, 0, 1}}, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Bad contact; diff (-got +want)\n%s", diff)
	}
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	m, err := ParseOBJ(strings.NewReader(src), red, 1, vec3.T{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []*geometry.Triangle{{A: vec3.T{0, 0, 0}, B: vec3.T{1, 0, 0}, C: vec3.T{0, 1, 0}, Mtl: red}}
	if diff := cmp.Diff(m.Triangles, want); diff != "" {
		t.Fatalf("Bad triangles; diff (-got +want)\n%s", diff)
	}
}

func TestParseOBJErrors(t *testing.T) {
	testCases := []struct {
		desc string
		src  string
	}{
		{desc: "empty", src: ""},
		{desc: "vertices only", src: "v 0 0 0\nv 1 0 0\nv 0 1 0\n"},
		{desc: "bad coordinate", src: "v 0 zero 0\n"},
		{desc: "index out of range", src: "v 0 0 0\nf 1 2 3\n"},
		{desc: "zero index", src: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := ParseOBJ(strings.NewReader(tc.src), red, 1, vec3.T{}); err == nil {
				t.Fatalf("Expected an error")
			}
		})
	}
}

func TestMeshInsideBVH(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(quadOBJ), red, 1, vec3.T{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, ok := m.Bounds()
	if !ok {
		t.Fatalf("Mesh has no bounds")
	}
	if b.Z.Lo >= 0 || b.Z.Hi <= 0 {
		t.Errorf("Flat mesh bounds not padded on Z: %+v", b.Z)
	}

	moved := m.Translate(vec3.T{0, 0, -3})
	c, ok := moved.Hit(ray.New(vec3.T{0.7, 0.2, 0}, vec3.T{0, 0, -1}), 0.001, math.MaxFloat64)
	if !ok || math.Abs(c.T-3) > 1e-9 {
		t.Errorf("Hit() = %v, %v; want t=3", c.T, ok)
	}
}
