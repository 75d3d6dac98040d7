// Package scenes builds the named demo scenes the host can start with.
package scenes

import (
	"fmt"
	"math"
	"sort"

	"conray/camera"
	"conray/geometry"
	"conray/integrator"
	"conray/light"
	"conray/material"
	"conray/mesh"
	"conray/palette"
	"conray/rng"
	"conray/scene"
	"conray/vmath/vec3"
)

// Options carries the inputs only some scenes need.
type Options struct {
	// OBJPath is required by the mesh scene.
	OBJPath  string
	OBJScale float64

	// Seed drives the random sphere field in the demo scene.
	Seed uint64
}

type builder func(opts Options) (*scene.Scene, error)

var builders = map[string]builder{
	"test":            func(Options) (*scene.Scene, error) { return Test(), nil },
	"demo":            func(o Options) (*scene.Scene, error) { return Demo(o.Seed), nil },
	"cornell":         func(Options) (*scene.Scene, error) { return Cornell(), nil },
	"mirror-spheres":  func(Options) (*scene.Scene, error) { return MirrorSpheres(), nil },
	"cylinders":       func(Options) (*scene.Scene, error) { return Cylinders(), nil },
	"boxes":           func(Options) (*scene.Scene, error) { return Boxes(), nil },
	"volume":          func(Options) (*scene.Scene, error) { return Volume(), nil },
	"mirror-corridor": func(Options) (*scene.Scene, error) { return MirrorCorridor(), nil },
	"mesh":            meshScene,
}

// Names lists every scene ByName accepts.
func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named scene.  Scenes are returned unbuilt; the caller
// publishes them with RebuildBVH (the renderer does so on construction).
func ByName(name string, opts Options) (*scene.Scene, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (have %v)", name, Names())
	}
	return b(opts)
}

func matte(albedo vec3.T, specular, reflectivity float64) material.Material {
	return material.Material{Albedo: albedo, Specular: specular, Reflectivity: reflectivity}
}

func mirror(tint vec3.T, reflectivity float64) material.Material {
	return material.Material{Albedo: tint, Reflectivity: reflectivity}
}

// swatch scales a console palette entry so meshes quantize predictably.
func swatch(i uint8, k float64) vec3.T {
	return vec3.MulVS(palette.Console16RGB[i], math.Max(0, math.Min(1, k)))
}

func flat(v float64) vec3.T {
	return vec3.T{v, v, v}
}

// Test is four spheres on a square, one of them a mirror, in a dark room.
func Test() *scene.Scene {
	s := scene.New()

	const r = 0.9
	s.Add(
		&geometry.Sphere{Center: vec3.T{-1.2, r, -2.2}, Radius: r, Mtl: matte(vec3.T{1, 0, 0}, 0.15, 0)},
		&geometry.Sphere{Center: vec3.T{1.2, r, -2.2}, Radius: r, Mtl: matte(vec3.T{0, 1, 0}, 0.15, 0)},
		&geometry.Sphere{Center: vec3.T{-1.2, r, -3.6}, Radius: r, Mtl: matte(vec3.T{0, 0, 1}, 0.15, 0)},
		&geometry.Sphere{Center: vec3.T{1.2, r, -3.6}, Radius: r, Mtl: mirror(flat(0.98), 0.9)},
	)

	s.AddLight(light.Point{Position: vec3.T{0, 3.2, -2.9}, Color: flat(1), Intensity: 140})
	s.AddLight(light.Point{Position: vec3.T{-2.2, 2, -2.4}, Color: flat(1), Intensity: 60})

	s.BackgroundTop = flat(0.05)
	s.BackgroundBottom = flat(0.05)
	return s
}

// Demo is three large spheres, an emissive sphere overhead and a field of
// random small spheres on a checker floor.  The same seed always places the
// same field.
func Demo(seed uint64) *scene.Scene {
	s := scene.New()

	spheres := []*geometry.Sphere{
		{Center: vec3.T{-1.2, 1, 0}, Radius: 1, Mtl: matte(vec3.T{0.9, 0.2, 0.2}, 0.25, 0.2)},
		{Center: vec3.T{1.2, 1, -0.5}, Radius: 1, Mtl: matte(vec3.T{0.2, 0.2, 0.9}, 0.35, 0.5)},
		{Center: vec3.T{0, 0.5, -2.5}, Radius: 0.5, Mtl: mirror(flat(0.95), 0.9)},
	}
	s.Add(geometry.NewPlane(vec3.T{}, vec3.T{0, 1, 0}, material.Checker(flat(0.8), flat(0.1), 0.5), 0, 0))

	lamp := &geometry.Sphere{
		Center: vec3.T{0, 5, 2},
		Radius: 0.5,
		Mtl:    material.Material{Albedo: flat(1), Emission: flat(8)},
	}
	spheres = append(spheres, lamp)

	s.AddLight(light.Point{Position: vec3.T{-2, 4, 3}, Color: vec3.T{1, 0.9, 0.8}, Intensity: 60})
	s.AddLight(light.Point{Position: vec3.T{2.5, 3.5, -1.5}, Color: vec3.T{0.8, 0.9, 1}, Intensity: 40})

	s.BackgroundTop = vec3.T{0.6, 0.8, 1}
	s.BackgroundBottom = vec3.T{0.9, 0.95, 1}

	spheres = scatterSpheres(rng.New(seed), spheres, 100, 32)
	for _, sp := range spheres {
		s.Add(sp)
	}
	return s
}

// scatterSpheres tries to place count small spheres resting on y == 0, each
// with up to attempts random positions, skipping any that would overlap a
// sphere already in placed.
func scatterSpheres(r interface{ Float64() float64 }, placed []*geometry.Sphere, count, attempts int) []*geometry.Sphere {
	overlaps := func(c vec3.T, radius float64) bool {
		for _, o := range placed {
			rr := radius + o.Radius + 0.05
			if vec3.SubVV(c, o.Center).NormSquared() < rr*rr {
				return true
			}
		}
		return false
	}

	for i := 0; i < count; i++ {
		for a := 0; a < attempts; a++ {
			radius := 0.18 + r.Float64()*0.32
			x := -3 + r.Float64()*6
			z := -4.8 + r.Float64()*4.6
			c := vec3.T{x, radius, z}
			if overlaps(c, radius) {
				continue
			}

			hue := r.Float64()
			sat := 0.65 + r.Float64()*0.35
			val := 0.55 + r.Float64()*0.45
			specular := 0.1 + r.Float64()*0.3
			refl := 0.05
			if r.Float64() < 0.2 {
				refl = 0.6
			}
			placed = append(placed, &geometry.Sphere{
				Center: c,
				Radius: radius,
				Mtl:    matte(integrator.HSVToRGB(hue, sat, val), specular, refl),
			})
			break
		}
	}
	return placed
}

// Cornell is an open-fronted box with red and green side walls, an emissive
// ceiling panel and two white blocks.
func Cornell() *scene.Scene {
	s := scene.New()

	white := material.Solid(flat(0.82))
	red := material.Solid(vec3.T{0.8, 0.1, 0.1})
	green := material.Solid(vec3.T{0.1, 0.8, 0.1})

	const (
		xL, xR = -3.0, 3.0
		yB, yT = 0.0, 5.0
		zB, zF = -5.0, 0.0
	)
	s.Add(
		&geometry.YZRect{Y0: yB, Y1: yT, Z0: zB, Z1: zF, X: xL, Mtl: red},
		&geometry.YZRect{Y0: yB, Y1: yT, Z0: zB, Z1: zF, X: xR, Mtl: green},
		&geometry.XZRect{X0: xL, X1: xR, Z0: zB, Z1: zF, Y: yB, Mtl: white},
		&geometry.XZRect{X0: xL, X1: xR, Z0: zB, Z1: zF, Y: yT, Mtl: white},
		&geometry.XYRect{X0: xL, X1: xR, Y0: yB, Y1: yT, Z: zB, Mtl: white},
		&geometry.XZRect{X0: -0.9, X1: 0.9, Z0: -3.2, Z1: -2.2, Y: yT - 0.01, Mtl: material.Emissive(flat(12))},
		geometry.NewBox(vec3.T{-2.2, 0, -4}, vec3.T{-0.8, 1, -2.8}, white, 0, 0),
		geometry.NewBox(vec3.T{0.6, 0, -3.3}, vec3.T{2, 1.8, -2.1}, white, 0, 0),
	)

	s.AddLight(light.Point{Position: vec3.T{0, 4.6, -2.7}, Color: flat(1), Intensity: 220})

	s.BackgroundTop = vec3.Zero
	s.BackgroundBottom = vec3.Zero
	return s
}

// MirrorSpheres puts gold, glassy and mirror spheres on a checker slab.
func MirrorSpheres() *scene.Scene {
	s := scene.New()

	s.Add(&geometry.XZRect{
		X0: -8, X1: 8, Z0: -8, Z1: 4, Y: 0,
		Mtl:      material.Checker(flat(0.8), flat(0.15), 0.6),
		Specular: 0.1,
	})
	s.Add(
		&geometry.Sphere{Center: vec3.T{-1.2, 1, -2}, Radius: 1, Mtl: matte(vec3.T{1, 0.85, 0.57}, 0.25, 0.1)},
		&geometry.Sphere{Center: vec3.T{1.3, 1, -2.6}, Radius: 1, Mtl: mirror(vec3.T{0.9, 0.95, 1}, 0.6)},
		&geometry.Sphere{Center: vec3.T{0, 0.5, -4.2}, Radius: 0.5, Mtl: mirror(flat(0.98), 0.85)},
	)

	s.AddLight(light.Point{Position: vec3.T{-2.5, 3.5, -1.5}, Color: vec3.T{1, 0.95, 0.9}, Intensity: 90})
	s.AddLight(light.Point{Position: vec3.T{2, 2.8, -3.8}, Color: vec3.T{0.9, 0.95, 1}, Intensity: 70})

	s.BackgroundTop = vec3.T{0.55, 0.75, 1}
	s.BackgroundBottom = vec3.T{0.95, 0.98, 1}
	return s
}

// Cylinders shows a capped cylinder, a disk and a triangle.
func Cylinders() *scene.Scene {
	s := scene.New()

	s.Add(
		geometry.NewPlane(vec3.T{}, vec3.T{0, 1, 0}, material.Checker(flat(0.75), flat(0.2), 0.8), 0.05, 0),
		geometry.NewCylinderY(vec3.T{-1.2, 0, -3}, 0.6, 0, 1.6, true, matte(vec3.T{0.2, 0.35, 0.9}, 0.1, 0)),
		geometry.NewDisk(vec3.T{1.6, 0.01, -2.2}, vec3.T{0, 1, 0}, 0.9, material.Solid(vec3.T{0.8, 0.8, 0.1}), 0, 0),
		&geometry.Triangle{
			A:   vec3.T{0.2, 0, -3.6},
			B:   vec3.T{1.3, 1.4, -3},
			C:   vec3.T{-0.7, 0.7, -2.8},
			Mtl: matte(vec3.T{0.9, 0.25, 0.25}, 0.1, 0),
		},
	)

	s.AddLight(light.Point{Position: vec3.T{-2.2, 3.2, -2}, Color: vec3.T{1, 0.95, 0.9}, Intensity: 70})
	s.AddLight(light.Point{Position: vec3.T{2.4, 2.2, -4.4}, Color: vec3.T{0.9, 0.95, 1}, Intensity: 60})

	s.BackgroundTop = vec3.T{0.58, 0.78, 1}
	s.BackgroundBottom = vec3.T{0.95, 0.98, 1}
	return s
}

// Boxes is three boxes on a checker floor, one of them partly reflective.
func Boxes() *scene.Scene {
	s := scene.New()

	white := material.Solid(flat(0.86))
	s.Add(
		geometry.NewPlane(vec3.T{}, vec3.T{0, 1, 0}, material.Checker(flat(0.85), flat(0.15), 0.7), 0.05, 0),
		geometry.NewBox(vec3.T{-2.2, 0, -3.6}, vec3.T{-1, 1.2, -2.4}, white, 0.1, 0),
		geometry.NewBox(vec3.T{-0.6, 0, -4.2}, vec3.T{0.6, 0.6, -3}, white, 0.1, 0.4),
		geometry.NewBox(vec3.T{1, 0, -3}, vec3.T{2.4, 2, -1.8}, white, 0, 0),
	)

	s.AddLight(light.Point{Position: vec3.T{-2, 3, -2}, Color: vec3.T{1, 0.95, 0.9}, Intensity: 70})
	s.AddLight(light.Point{Position: vec3.T{2, 2.5, -4.2}, Color: vec3.T{0.9, 0.95, 1}, Intensity: 50})

	s.BackgroundTop = vec3.T{0.6, 0.8, 1}
	s.BackgroundBottom = vec3.T{0.95, 0.98, 1}
	return s
}

// Voxel material ids used by Volume.
const (
	VoxelStone = 1 + iota
	VoxelRed
	VoxelGreen
	VoxelBlue
	VoxelMirror
)

// VoxelLookup maps the Volume scene's material ids.  Unknown ids are a
// neutral grey.
func VoxelLookup(matID, metaID int) material.Material {
	switch matID {
	case VoxelStone:
		return matte(vec3.T{0.82, 0.82, 0.85}, 0, 0)
	case VoxelRed:
		return matte(vec3.T{0.95, 0.15, 0.15}, 0.05, 0)
	case VoxelGreen:
		return matte(vec3.T{0.15, 0.95, 0.2}, 0.05, 0)
	case VoxelBlue:
		return matte(vec3.T{0.15, 0.25, 0.95}, 0.05, 0)
	case VoxelMirror:
		return mirror(flat(0.98), 0.9)
	}
	return matte(flat(0.7), 0, 0)
}

// Volume is a 16x8x16 voxel room: a floor, low walls, four pillars, a
// checker dais and four cells tagged with metadata.
func Volume() *scene.Scene {
	s := scene.New()

	const nx, ny, nz = 16, 8, 16
	g := geometry.NewVolumeGrid(nx, ny, nz, vec3.T{-4, 0, -6}, flat(0.5), VoxelLookup)
	set := func(x, y, z, mat, meta int) {
		g.Set(x, y, z, geometry.Cell{MatID: int32(mat), MetaID: int32(meta)})
	}

	for x := 0; x < nx; x++ {
		for z := 0; z < nz; z++ {
			set(x, 0, z, VoxelStone, 0)
		}
	}
	for y := 1; y <= 3; y++ {
		for x := 0; x < nx; x++ {
			set(x, y, 0, VoxelStone, 0)
			set(x, y, nz-1, VoxelStone, 0)
		}
		for z := 0; z < nz; z++ {
			set(0, y, z, VoxelStone, 0)
			set(nx-1, y, z, VoxelStone, 0)
		}
	}

	pillar := func(cx, cz, height, mat int) {
		for y := 1; y <= height && y < ny; y++ {
			set(cx, y, cz, mat, 0)
		}
	}
	pillar(4, 4, 4, VoxelRed)
	pillar(11, 4, 3, VoxelGreen)
	pillar(4, 11, 5, VoxelBlue)
	pillar(11, 11, 4, VoxelMirror)

	for x := 6; x <= 9; x++ {
		for z := 6; z <= 9; z++ {
			if (x+z)&1 == 0 {
				set(x, 1, z, VoxelStone, 0)
			} else {
				set(x, 1, z, VoxelBlue, 0)
			}
		}
	}

	set(2, 1, 2, VoxelRed, 101)
	set(13, 1, 2, VoxelGreen, 102)
	set(2, 1, 13, VoxelBlue, 103)
	set(13, 1, 13, VoxelMirror, 104)

	s.Add(g)

	s.AddLight(light.Point{Position: vec3.T{0, 5, -3}, Color: flat(1), Intensity: 220})
	s.AddLight(light.Point{Position: vec3.T{-2.5, 3, -1.8}, Color: vec3.T{1, 0.95, 0.9}, Intensity: 90})

	s.BackgroundTop = flat(0.02)
	s.BackgroundBottom = flat(0.02)
	return s
}

// MirrorCorridor is two facing mirror walls with a lit sphere between them,
// for watching the mirror bounce cap.
func MirrorCorridor() *scene.Scene {
	s := scene.New()

	glass := material.Solid(flat(0.95))
	s.Add(
		geometry.NewPlane(vec3.T{-1.5, 0, 0}, vec3.T{1, 0, 0}, glass, 0, 0.95),
		geometry.NewPlane(vec3.T{1.5, 0, 0}, vec3.T{-1, 0, 0}, glass, 0, 0.95),
		&geometry.XZRect{X0: -1.5, X1: 1.5, Z0: -40, Z1: 4, Y: 0, Mtl: material.Checker(flat(0.8), flat(0.15), 0.5)},
		&geometry.Sphere{Center: vec3.T{0, 0.6, -3}, Radius: 0.6, Mtl: matte(vec3.T{0.9, 0.3, 0.2}, 0.1, 0)},
	)

	s.AddLight(light.Point{Position: vec3.T{0, 3, -1.5}, Color: flat(1), Intensity: 60})

	s.BackgroundTop = vec3.T{0.3, 0.35, 0.45}
	s.BackgroundBottom = flat(0.05)
	s.DefaultPose = camera.Pose{Position: vec3.T{0, 1.2, 1}, Yaw: 0.35}
	return s
}

// meshScene loads an OBJ, scales it, and sets it on the floor three units in
// front of the camera.
func meshScene(opts Options) (*scene.Scene, error) {
	if opts.OBJPath == "" {
		return nil, fmt.Errorf("mesh scene needs an OBJ path")
	}
	scale := opts.OBJScale
	if scale <= 0 {
		scale = 1
	}

	s := scene.New()
	s.Add(geometry.NewPlane(vec3.T{}, vec3.T{0, 1, 0}, material.Solid(flat(1)), 0.01, 0))
	s.AddLight(light.Point{Position: vec3.T{0, 30.6, -4.2}, Color: vec3.T{1, 0.95, 0.88}, Intensity: 110})
	s.AddLight(light.Point{Position: vec3.T{0, 30, 4.2}, Color: vec3.T{0.85, 0.9, 1}, Intensity: 85})
	s.BackgroundTop = vec3.Zero
	s.BackgroundBottom = vec3.Zero

	m, err := mesh.LoadOBJ(opts.OBJPath, matte(swatch(palette.Yellow, 0.9), 0.08, 0), scale, vec3.T{0, 0, -3})
	if err != nil {
		return nil, fmt.Errorf("while building mesh scene: %w", err)
	}
	s.Add(OnGround(m))
	return s, nil
}

// OnGround lifts or drops m so its lowest vertex sits just above y == 0.
func OnGround(m *mesh.Mesh) *mesh.Mesh {
	return m.Translate(vec3.T{0, 0.01 - m.Min[1], 0})
}
