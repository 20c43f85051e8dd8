package models

import (
	"math"

	"github.com/taigrr/lumen/pkg/math3d"
)

// quad appends the parallelogram corner, corner+u, corner+u+v, corner+v as
// two faces with normal n.
func (m *Mesh) quad(corner, u, v, n math3d.Vec3, material int) {
	base := len(m.Vertices)
	for _, p := range []math3d.Vec3{corner, corner.Add(u), corner.Add(u).Add(v), corner.Add(v)} {
		m.Vertices = append(m.Vertices, MeshVertex{Position: p, Normal: n})
	}
	m.AddFace(Face{V: [3]int{base, base + 1, base + 2}, Material: material, Normal: n})
	m.AddFace(Face{V: [3]int{base, base + 2, base + 3}, Material: material, Normal: n})
}

// box appends an axis-aligned box of the given size, rotated about Y by
// angle and with its base corner moved to at.
func (m *Mesh) box(size math3d.Vec3, angle float64, at math3d.Vec3, material int) {
	b := NewMesh("box")
	x, y, z := math3d.V3(size.X, 0, 0), math3d.V3(0, size.Y, 0), math3d.V3(0, 0, size.Z)
	o := math3d.Vec3{}
	b.quad(o, z, x, math3d.V3(0, -1, 0), material)
	b.quad(y, x, z, math3d.V3(0, 1, 0), material)
	b.quad(o, x, y, math3d.V3(0, 0, -1), material)
	b.quad(z, y, x, math3d.V3(0, 0, 1), material)
	b.quad(o, y, z, math3d.V3(-1, 0, 0), material)
	b.quad(x, z, y, math3d.V3(1, 0, 0), material)
	b.Transform(math3d.Translate(at).Mul(math3d.RotateY(angle)))

	// Materials are shared with m, so only geometry is merged.
	vBase := len(m.Vertices)
	m.Vertices = append(m.Vertices, b.Vertices...)
	for _, f := range b.Faces {
		for j := range f.V {
			f.V[j] += vBase
		}
		m.AddFace(f)
	}
}

// CornellBox returns the classic 555-unit Cornell box: white floor, ceiling
// and back wall, a red wall on the camera's left, a green wall on its right,
// a square ceiling light and two white blocks. The camera sits at
// (278, 278, -800) looking down +Z with a 40 degree vertical field of view.
func CornellBox() *Mesh {
	const size = 555.0
	m := NewMesh("cornell")
	white := m.AddMaterial(Material{Name: "white", Diffuse: math3d.V3(0.73, 0.73, 0.73)})
	red := m.AddMaterial(Material{Name: "red", Diffuse: math3d.V3(0.65, 0.05, 0.05)})
	green := m.AddMaterial(Material{Name: "green", Diffuse: math3d.V3(0.12, 0.45, 0.15)})
	light := m.AddMaterial(Material{Name: "light", Emissive: math3d.Splat(15)})

	x, y, z := math3d.V3(size, 0, 0), math3d.V3(0, size, 0), math3d.V3(0, 0, size)

	m.BeginGroup("floor")
	m.quad(math3d.Vec3{}, z, x, math3d.V3(0, 1, 0), white)
	m.BeginGroup("ceiling")
	m.quad(y, x, z, math3d.V3(0, -1, 0), white)
	m.BeginGroup("back")
	m.quad(z, x, y, math3d.V3(0, 0, -1), white)
	// Looking down +Z, world +X is screen left.
	m.BeginGroup("left")
	m.quad(x, y, z, math3d.V3(-1, 0, 0), red)
	m.BeginGroup("right")
	m.quad(math3d.Vec3{}, z, y, math3d.V3(1, 0, 0), green)

	const lightSize = 130.0
	off := (size - lightSize) / 2
	m.BeginGroup("light")
	m.quad(math3d.V3(off, size-1, off), math3d.V3(lightSize, 0, 0), math3d.V3(0, 0, lightSize), math3d.V3(0, -1, 0), light)

	m.BeginGroup("short block")
	m.box(math3d.V3(165, 165, 165), -0.314, math3d.V3(130, 0, 65), white)
	m.BeginGroup("tall block")
	m.box(math3d.V3(165, 330, 165), 0.262, math3d.V3(265, 0, 295), white)

	m.CalculateBounds()
	return m
}

// CornellCamera returns the eye, target and vertical field of view (radians)
// that frame CornellBox.
func CornellCamera() (eye, target math3d.Vec3, fovy float64) {
	return math3d.V3(278, 278, -800), math3d.V3(278, 278, 0), 40 * math.Pi / 180
}

// AddAreaLight adds an emissive square above the mesh, facing down, sized
// to the mesh's horizontal footprint. Models rarely carry their own
// emitters and rays that escape the scene gather nothing.
func (m *Mesh) AddAreaLight(radiance math3d.Vec3) {
	m.CalculateBounds()
	size := m.Size()
	center := m.Center()
	half := max(size.X, size.Z) * 0.5
	height := m.BoundsMax.Y + max(size.Y, 2*half)*0.5

	mat := m.AddMaterial(Material{Name: "area light", Emissive: radiance})
	m.BeginGroup("area light")
	m.quad(
		math3d.V3(center.X-half, height, center.Z-half),
		math3d.V3(0, 0, 2*half),
		math3d.V3(2*half, 0, 0),
		math3d.V3(0, -1, 0),
		mat,
	)
	m.CalculateBounds()
}
