// Package models loads triangle meshes from disk and flattens them into
// tracer scenes.
package models

import (
	"github.com/taigrr/lumen/pkg/math3d"
)

// Mesh represents a triangle mesh with per-face materials and named groups.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material
	// Groups partition Faces into contiguous named ranges. Each group
	// becomes one culling object in the flattened scene.
	Groups []Group

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds the vertex attributes the tracer uses.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
}

// Face represents a triangle face with vertex indices and material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
	// Normal overrides the shading normal when non-zero. Otherwise the
	// geometric normal is used, turned to agree with the vertex normals.
	Normal math3d.Vec3
}

// Group names the faces [Start, Start+Count).
type Group struct {
	Name  string
	Start int
	Count int
}

// Material is a diffuse albedo plus emitted radiance.
type Material struct {
	Name     string
	Diffuse  math3d.Vec3
	Emissive math3d.Vec3
}

// DefaultMaterial is used for faces with no material.
var DefaultMaterial = Material{Name: "default", Diffuse: math3d.Splat(0.8)}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// AddMaterial appends mat and returns its index.
func (m *Mesh) AddMaterial(mat Material) int {
	m.Materials = append(m.Materials, mat)
	return len(m.Materials) - 1
}

// BeginGroup starts a new group at the current face count. An open group
// that received no faces is replaced.
func (m *Mesh) BeginGroup(name string) {
	if n := len(m.Groups); n > 0 && m.Groups[n-1].Count == 0 {
		m.Groups[n-1].Name = name
		return
	}
	m.Groups = append(m.Groups, Group{Name: name, Start: len(m.Faces)})
}

// AddFace appends f to the mesh and to the open group, opening one named
// after the mesh if none exists.
func (m *Mesh) AddFace(f Face) {
	if len(m.Groups) == 0 {
		m.BeginGroup(m.Name)
	}
	m.Faces = append(m.Faces, f)
	m.Groups[len(m.Groups)-1].Count++
}

// FaceNormal returns the shading normal of face i: the explicit override if
// set, otherwise the geometric normal flipped, if needed, to agree with the
// summed vertex normals.
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	f := m.Faces[i]
	if !f.Normal.IsZero() {
		return f.Normal.Normalize()
	}
	a := m.Vertices[f.V[0]]
	b := m.Vertices[f.V[1]]
	c := m.Vertices[f.V[2]]
	n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position)).Normalize()
	if n.Dot(a.Normal.Add(b.Normal).Add(c.Normal)) < 0 {
		n = n.Negate()
	}
	return n
}

// CalculateSmoothNormals computes averaged normals for smooth shading.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Vec3{}
	}

	// Accumulate area-weighted face normals per vertex
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		normal := v1.Sub(v0).Cross(v2.Sub(v0))

		m.Vertices[f.V[0]].Normal = m.Vertices[f.V[0]].Normal.Add(normal)
		m.Vertices[f.V[1]].Normal = m.Vertices[f.V[1]].Normal.Add(normal)
		m.Vertices[f.V[2]].Normal = m.Vertices[f.V[2]].Normal.Add(normal)
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// Transform applies a transformation matrix to all vertices and face
// normal overrides. Normals use the rotation part only.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	for i := range m.Faces {
		if !m.Faces[i].Normal.IsZero() {
			m.Faces[i].Normal = mat.MulVec3Dir(m.Faces[i].Normal).Normalize()
		}
	}
	m.CalculateBounds()
}

// Fit uniformly scales and translates the mesh so its largest dimension is
// size and its bounding box is centered on the origin.
func (m *Mesh) Fit(size float64) {
	m.CalculateBounds()
	extent := m.Size().MaxComponent()
	if extent == 0 {
		return
	}
	s := size / extent
	m.Transform(math3d.Scale(math3d.Splat(s)).Mul(math3d.Translate(m.Center().Negate())))
}

// Append copies other's vertices, faces, materials and groups onto m.
func (m *Mesh) Append(other *Mesh) {
	vBase, fBase, mBase := len(m.Vertices), len(m.Faces), len(m.Materials)
	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Materials = append(m.Materials, other.Materials...)
	for _, f := range other.Faces {
		for j := range f.V {
			f.V[j] += vBase
		}
		if f.Material >= 0 {
			f.Material += mBase
		}
		m.Faces = append(m.Faces, f)
	}
	for _, g := range other.Groups {
		g.Start += fBase
		m.Groups = append(m.Groups, g)
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
		Groups:    make([]Group, len(m.Groups)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	copy(clone.Groups, m.Groups)
	return clone
}

// GetMaterial returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// MaterialCount returns the number of materials.
func (m *Mesh) MaterialCount() int {
	return len(m.Materials)
}
