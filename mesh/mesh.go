// Package mesh holds triangle meshes.  A Mesh is one primitive to the scene's
// BVH and carries its own BVH over its triangles.
package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"conray/aabox"
	"conray/bvh"
	"conray/contact"
	"conray/geometry"
	"conray/material"
	"conray/ray"
	"conray/vmath/vec3"
)

type Mesh struct {
	Min, Max  vec3.T
	Triangles []*geometry.Triangle

	tree *bvh.BVH
}

var _ geometry.Hittable = (*Mesh)(nil)

func New(tris []*geometry.Triangle) *Mesh {
	m := &Mesh{Triangles: tris}

	box := aabox.AccumZeroAABox()
	objs := make([]geometry.Hittable, 0, len(tris))
	for _, t := range tris {
		box = aabox.GrowAABoxToPoint(box, t.A)
		box = aabox.GrowAABoxToPoint(box, t.B)
		box = aabox.GrowAABoxToPoint(box, t.C)
		objs = append(objs, t)
	}
	m.Min, m.Max = box.Min(), box.Max()
	m.tree = bvh.New(objs)
	return m
}

// Bounds is the vertex bounding box, padded so a flat mesh still has volume.
func (m *Mesh) Bounds() (aabox.AABox, bool) {
	if len(m.Triangles) == 0 {
		return aabox.AABox{}, false
	}
	return aabox.FromCorners(m.Min, m.Max).Pad(geometry.Eps, [3]bool{true, true, true}), true
}

// Hit uses the caller's interval unchanged.  Self-intersection is left to
// the caller's ray offset, as for any other primitive.
func (m *Mesh) Hit(r ray.Ray, tMin, tMax float64) (contact.Contact, bool) {
	return m.tree.Hit(r, tMin, tMax)
}

// Translate moves every vertex by d and rebuilds the tree.
func (m *Mesh) Translate(d vec3.T) *Mesh {
	moved := make([]*geometry.Triangle, 0, len(m.Triangles))
	for _, t := range m.Triangles {
		moved = append(moved, &geometry.Triangle{
			A:   vec3.AddVV(t.A, d),
			B:   vec3.AddVV(t.B, d),
			C:   vec3.AddVV(t.C, d),
			Mtl: t.Mtl,
		})
	}
	return New(moved)
}

// LoadOBJ reads a Wavefront OBJ file from disk.
func LoadOBJ(fileName string, mtl material.Material, scale float64, translate vec3.T) (*Mesh, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("while opening mesh: %w", err)
	}
	defer f.Close()

	m, err := ParseOBJ(f, mtl, scale, translate)
	if err != nil {
		return nil, fmt.Errorf("while loading %s: %w", fileName, err)
	}
	return m, nil
}

// ParseOBJ reads vertex positions and faces.  Positions are scaled, then
// translated.  Faces with more than three corners are fan-triangulated.
// Normals, texture coordinates and every other record kind are ignored.
func ParseOBJ(r io.Reader, mtl material.Material, scale float64, translate vec3.T) (*Mesh, error) {
	positions := []vec3.T{}
	tris := []*geometry.Triangle{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch {
		case fields[0] == "v" && len(fields) >= 4:
			var p vec3.T
			for i := 0; i < 3; i++ {
				c, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: while parsing vertex: %w", lineNo, err)
				}
				p[i] = c*scale + translate[i]
			}
			positions = append(positions, p)

		case fields[0] == "f" && len(fields) >= 4:
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				i, err := parseIndex(tok, len(positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				idx = append(idx, i)
			}
			for i := 2; i < len(idx); i++ {
				tris = append(tris, &geometry.Triangle{
					A:   positions[idx[0]],
					B:   positions[idx[i-1]],
					C:   positions[idx[i]],
					Mtl: mtl,
				})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("while reading OBJ: %w", err)
	}

	if len(tris) == 0 {
		return nil, fmt.Errorf("OBJ had no triangles")
	}
	return New(tris), nil
}

// parseIndex resolves the vertex part of a face token (v, v/vt, v//vn or
// v/vt/vn).  OBJ indices are 1-based; negative ones count back from the most
// recent vertex.
func parseIndex(tok string, count int) (int, error) {
	v := tok
	if i := strings.IndexByte(tok, '/'); i >= 0 {
		v = tok[:i]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("while parsing face index %q: %w", tok, err)
	}

	var i int
	switch {
	case n > 0:
		i = n - 1
	case n < 0:
		i = count + n
	default:
		return 0, fmt.Errorf("face index %q is zero", tok)
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("face index %q out of range (%d vertices)", tok, count)
	}
	return i, nil
}
