package geometry

import (
	"fmt"
	"math"

	"conray/aabox"
	"conray/contact"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"
)

// Cell is one voxel.  A MatID of zero is empty space; MetaID is opaque to the
// grid and only passed through to the material lookup.
type Cell struct {
	MatID  int32
	MetaID int32
}

// VolumeGrid is a dense voxel grid walked with a 3D DDA.
type VolumeGrid struct {
	NX, NY, NZ int
	MinCorner  vec3.T
	VoxelSize  vec3.T
	Lookup     material.Lookup

	cells []Cell
}

func NewVolumeGrid(nx, ny, nz int, minCorner, voxelSize vec3.T, lookup material.Lookup) *VolumeGrid {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		panic(fmt.Sprintf("geometry: bad volume grid size %dx%dx%d", nx, ny, nz))
	}
	return &VolumeGrid{
		NX:        nx,
		NY:        ny,
		NZ:        nz,
		MinCorner: minCorner,
		VoxelSize: vec3.T{
			math.Max(1e-6, voxelSize[0]),
			math.Max(1e-6, voxelSize[1]),
			math.Max(1e-6, voxelSize[2]),
		},
		Lookup: lookup,
		cells:  make([]Cell, nx*ny*nz),
	}
}

func (g *VolumeGrid) index(x, y, z int) int {
	return (z*g.NY+y)*g.NX + x
}

func (g *VolumeGrid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.NX && y >= 0 && y < g.NY && z >= 0 && z < g.NZ
}

func (g *VolumeGrid) At(x, y, z int) Cell {
	return g.cells[g.index(x, y, z)]
}

func (g *VolumeGrid) Set(x, y, z int, c Cell) {
	g.cells[g.index(x, y, z)] = c
}

func (g *VolumeGrid) MaxCorner() vec3.T {
	return vec3.T{
		g.MinCorner[0] + float64(g.NX)*g.VoxelSize[0],
		g.MinCorner[1] + float64(g.NY)*g.VoxelSize[1],
		g.MinCorner[2] + float64(g.NZ)*g.VoxelSize[2],
	}
}

func (g *VolumeGrid) Bounds() (aabox.AABox, bool) {
	return aabox.FromCorners(g.MinCorner, g.MaxCorner()), true
}

func clampToGrid(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func stepSign(d float64) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}

func (g *VolumeGrid) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	box, _ := g.Bounds()
	tEnter, tExit, lastAxis, ok := aabox.RayEntry(&r, &box)
	if !ok {
		return contact.Contact{}, false
	}

	t := math.Max(tEnter, tMin)
	if t > tMax || t > tExit {
		return contact.Contact{}, false
	}

	n := [3]int{g.NX, g.NY, g.NZ}
	var idx, step [3]int
	var tNext, tDelta [3]float64

	p := r.Eval(t + 1e-6)
	for i := 0; i < 3; i++ {
		idx[i] = clampToGrid(int(math.Floor((p[i]-g.MinCorner[i])/g.VoxelSize[i])), n[i])
		step[i] = stepSign(r.Slope[i])
		if step[i] == 0 {
			tNext[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
			continue
		}
		boundary := g.MinCorner[i] + float64(idx[i])*g.VoxelSize[i]
		if step[i] > 0 {
			boundary += g.VoxelSize[i]
		}
		tNext[i] = (boundary - r.Point[i]) / r.Slope[i]
		tDelta[i] = math.Abs(g.VoxelSize[i] / r.Slope[i])
	}

	for t <= tExit && t <= tMax {
		if g.InBounds(idx[0], idx[1], idx[2]) {
			cell := g.At(idx[0], idx[1], idx[2])
			if cell.MatID > 0 {
				hitT := math.Max(t, tMin)
				return contact.Contact{
					T:   hitT,
					P:   r.Eval(hitT),
					N:   faceNormal(lastAxis, step, r.Slope),
					Mtl: g.Lookup(int(cell.MatID), int(cell.MetaID)),
				}, true
			}
		}

		// Step across whichever voxel boundary comes first.
		axis := 2
		if tNext[0] < tNext[1] && tNext[0] < tNext[2] {
			axis = 0
		} else if tNext[1] < tNext[2] {
			axis = 1
		}
		idx[axis] += step[axis]
		t = tNext[axis]
		tNext[axis] += tDelta[axis]
		lastAxis = axis
		if idx[axis] < 0 || idx[axis] >= n[axis] {
			break
		}
	}

	return contact.Contact{}, false
}

// faceNormal is the normal of the voxel face crossed along axis, which
// always points back against the step direction.
func faceNormal(axis int, step [3]int, slope vec3.T) vec3.T {
	if axis < 0 {
		// No slab set the entry; use the dominant direction instead.
		axis = 0
		for i := 1; i < 3; i++ {
			if math.Abs(slope[i]) > math.Abs(slope[axis]) {
				axis = i
			}
		}
	}
	var n vec3.T
	if step[axis] > 0 {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return n
}
