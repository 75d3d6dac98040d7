// Package palette maps display colours onto a small indexed palette.
package palette

import (
	"math"

	"conray/vmath/vec3"
)

// Quantizer picks the palette entry closest to a display colour (sRGB in
// [0, 1], already tone mapped and gamma corrected).
type Quantizer interface {
	Nearest(c vec3.T) uint8
}

// Console colour indices, in the order terminals conventionally number them
// for 16-colour consoles.
const (
	Black uint8 = iota
	DarkBlue
	DarkGreen
	DarkCyan
	DarkRed
	DarkMagenta
	DarkYellow
	Gray
	DarkGray
	Blue
	Green
	Cyan
	Red
	Magenta
	Yellow
	White
)

// Console16RGB holds the sRGB value of each console colour.
var Console16RGB = [16]vec3.T{
	{0, 0, 0},
	{0, 0, 0.5},
	{0, 0.5, 0},
	{0, 0.5, 0.5},
	{0.5, 0, 0},
	{0.5, 0, 0.5},
	{0.5, 0.5, 0},
	{0.75, 0.75, 0.75},
	{0.5, 0.5, 0.5},
	{0, 0, 1},
	{0, 1, 0},
	{0, 1, 1},
	{1, 0, 0},
	{1, 0, 1},
	{1, 1, 0},
	{1, 1, 1},
}

// ANSIForeground is the SGR foreground code of each console colour.  Add 10
// for the background code.
var ANSIForeground = [16]int{30, 34, 32, 36, 31, 35, 33, 37, 90, 94, 92, 96, 91, 95, 93, 97}

var grayIndices = []uint8{Black, DarkGray, Gray, White}

const (
	chromaNeutral  = 0.020
	lWeight        = 0.5
	cWeight        = 1.8
	hWeightBase    = 1.0
	hueChromaBoost = 0.6
	grayPenalty    = 0.08
	grayLWeight    = 1.2
)

// Console16 matches in OKLCh.  Near-neutral inputs only consider the four
// grays, by lightness; chromatic inputs consider everything, with the grays
// penalized and hue weighted up as chroma grows.
type Console16 struct {
	lch [16]vec3.T
}

var _ Quantizer = (*Console16)(nil)

func NewConsole16() *Console16 {
	q := &Console16{}
	for i, c := range Console16RGB {
		q.lch[i] = labToLCh(SRGBToOKLab(c))
	}
	return q
}

func (q *Console16) Nearest(c vec3.T) uint8 {
	lch := labToLCh(SRGBToOKLab(vec3.Saturate(c)))
	l, ch, h := lch[0], lch[1], lch[2]

	if ch < chromaNeutral {
		best := grayIndices[0]
		bestD := math.MaxFloat64
		for _, gi := range grayIndices {
			dL := l - q.lch[gi][0]
			if d := dL * dL * grayLWeight; d < bestD {
				bestD = d
				best = gi
			}
		}
		return best
	}

	best := uint8(0)
	bestD := math.MaxFloat64
	for i := range q.lch {
		li, ci, hi := q.lch[i][0], q.lch[i][1], q.lch[i][2]
		dL := l - li
		dC := ch - ci
		dh := wrapAngle(h - hi)
		wH := hWeightBase * (hueChromaBoost + 0.5*(ch+ci))

		d := lWeight*dL*dL + cWeight*dC*dC + wH*dh*dh
		if isGray(uint8(i)) {
			d += grayPenalty
		}
		if d < bestD {
			bestD = d
			best = uint8(i)
		}
	}
	return best
}

func isGray(i uint8) bool {
	for _, g := range grayIndices {
		if g == i {
			return true
		}
	}
	return false
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func cbrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Cbrt(x)
}

// SRGBToOKLab returns (L, a, b).
func SRGBToOKLab(c vec3.T) vec3.T {
	r := srgbToLinear(c[0])
	g := srgbToLinear(c[1])
	b := srgbToLinear(c[2])

	l := cbrt(0.4122214708*r + 0.5363325363*g + 0.0514459929*b)
	m := cbrt(0.2119034982*r + 0.6806995451*g + 0.1073969566*b)
	s := cbrt(0.0883024619*r + 0.2817188376*g + 0.6299787005*b)

	return vec3.T{
		0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
	}
}

func labToLCh(lab vec3.T) vec3.T {
	return vec3.T{lab[0], math.Hypot(lab[1], lab[2]), math.Atan2(lab[2], lab[1])}
}

func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
