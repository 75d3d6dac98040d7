package palette

import (
	"testing"

	"conray/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPaletteColoursMapToThemselves(t *testing.T) {
	q := NewConsole16()
	for i, c := range Console16RGB {
		if got := q.Nearest(c); got != uint8(i) {
			t.Errorf("Nearest(%v) = %d, want %d", c, got, i)
		}
	}
}

func TestNearest(t *testing.T) {
	q := NewConsole16()
	testCases := []struct {
		desc string
		in   vec3.T
		want uint8
	}{
		{desc: "near black", in: vec3.T{0.02, 0.02, 0.02}, want: Black},
		{desc: "light gray", in: vec3.T{0.8, 0.8, 0.8}, want: Gray},
		{desc: "out of range clamps to white", in: vec3.T{3, 3, 3}, want: White},
		{desc: "negative clamps to black", in: vec3.T{-1, -1, -1}, want: Black},
		{desc: "slightly dim red", in: vec3.T{0.95, 0.05, 0.05}, want: Red},
		{desc: "sky blue is not gray", in: vec3.T{0.1, 0.3, 0.95}, want: Blue},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if got := q.Nearest(tc.in); got != tc.want {
				t.Errorf("Nearest(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestOKLabReference(t *testing.T) {
	// White has L = 1 and no chroma.
	got := SRGBToOKLab(vec3.T{1, 1, 1})
	if diff := cmp.Diff(got, vec3.T{1, 0, 0}, cmpopts.EquateApprox(0, 1e-3)); diff != "" {
		t.Errorf("Bad OKLab for white; diff (-got +want)\n%s", diff)
	}
}
