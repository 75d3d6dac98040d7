package vec3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNormalizeZero(t *testing.T) {
	got := Normalize(T{0, 0, 0})
	if diff := cmp.Diff(got, T{0, 0, 0}); diff != "" {
		t.Fatalf("Bad normalization of zero vector; diff (-got +want)\n%s", diff)
	}
}

func TestAlgebra(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-12)

	testCases := []struct {
		desc string
		got  T
		want T
	}{
		{"add", AddVV(T{1, 2, 3}, T{4, 5, 6}), T{5, 7, 9}},
		{"sub", SubVV(T{1, 2, 3}, T{4, 5, 6}), T{-3, -3, -3}},
		{"mul-elementwise", MulVV(T{1, 2, 3}, T{4, 5, 6}), T{4, 10, 18}},
		{"scale", MulVS(T{1, 2, 3}, 2), T{2, 4, 6}},
		{"neg", Neg(T{1, -2, 3}), T{-1, 2, -3}},
		{"cross", CProd(T{1, 0, 0}, T{0, 1, 0}), T{0, 0, 1}},
		{"normalize", Normalize(T{3, 0, 4}), T{0.6, 0, 0.8}},
		{"reflect", Reflect(T{1, -1, 0}, T{0, 1, 0}), T{1, 1, 0}},
		{"lerp", Lerp(T{0, 0, 0}, T{2, 4, 6}, 0.5), T{1, 2, 3}},
		{"saturate", Saturate(T{-1, 0.5, 2}), T{0, 0.5, 1}},
		{"reinhard", ToneMapReinhard(T{1, 0, 3}), T{0.5, 0, 0.75}},
		{"face-forward-keep", FaceForward(T{0, 0, 1}, T{0, 0, -1}), T{0, 0, 1}},
		{"face-forward-flip", FaceForward(T{0, 0, 1}, T{0, 0, 1}), T{0, 0, -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if diff := cmp.Diff(tc.got, tc.want, approx); diff != "" {
				t.Errorf("diff (-got +want)\n%s", diff)
			}
		})
	}
}

func TestCosineHemisphereStaysAboveSurface(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	normals := []T{
		{0, 1, 0},
		{1, 0, 0},
		{0, 0, -1},
		Normalize(T{1, 1, 1}),
		Normalize(T{-0.05, 0.2, 0.9}),
	}

	for _, n := range normals {
		for i := 0; i < 1000; i++ {
			d := CosineUnitVec3Distribution(n, rng)
			if math.Abs(d.Norm()-1) > 1e-9 {
				t.Fatalf("Sample %v for normal %v is not unit length", d, n)
			}
			if IProd(d, n) < 0 {
				t.Fatalf("Sample %v is below the surface with normal %v", d, n)
			}
		}
	}
}

func TestCosineHemispherePoleSample(t *testing.T) {
	// u1 == 0 puts the sample exactly on the normal.
	n := Normalize(T{0.3, 0.4, 0.5})
	got := CosineHemisphere(n, 0, 0.37)
	if diff := cmp.Diff(got, n, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("Bad pole sample; diff (-got +want)\n%s", diff)
	}
}
