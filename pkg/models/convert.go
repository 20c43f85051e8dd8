package models

import (
	"fmt"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/scene"
)

// Scene flattens the mesh into tracer arrays. Every group becomes one
// object, in group order, and every face gets its own normal entry. Faces
// without a material use DefaultMaterial.
func (m *Mesh) Scene() (*scene.Scene, error) {
	b := scene.NewBuilder()

	for _, v := range m.Vertices {
		b.AddPosition(v.Position)
	}

	matIndex := make([]uint32, len(m.Materials))
	for i, mat := range m.Materials {
		matIndex[i] = b.AddMaterial(scene.Material{Diffuse: mat.Diffuse, Emissive: mat.Emissive})
	}
	fallback := int64(-1)
	material := func(i int) uint32 {
		if i >= 0 && i < len(matIndex) {
			return matIndex[i]
		}
		if fallback < 0 {
			fallback = int64(b.AddMaterial(scene.Material{Diffuse: DefaultMaterial.Diffuse}))
		}
		return uint32(fallback)
	}

	groups := m.Groups
	if len(groups) == 0 {
		groups = []Group{{Name: m.Name, Start: 0, Count: len(m.Faces)}}
	}
	for _, g := range groups {
		tris := make([]scene.Triangle, 0, g.Count)
		for i := g.Start; i < g.Start+g.Count; i++ {
			f := m.Faces[i]
			for _, v := range f.V {
				if v < 0 || v >= len(m.Vertices) {
					return nil, fmt.Errorf("flatten %s: face %d: vertex %d: %w", m.Name, i, v, scene.ErrIndexOutOfRange)
				}
			}
			n := m.FaceNormal(i)
			if n.IsZero() {
				// Degenerate triangle: it can never be hit.
				n = math3d.Up()
			}
			tris = append(tris, scene.Triangle{
				V:        [3]uint32{uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2])},
				Normal:   b.AddNormal(n),
				Material: material(f.Material),
			})
		}
		if err := b.AddObject(g.Name, tris); err != nil {
			return nil, fmt.Errorf("flatten %s: %w", m.Name, err)
		}
	}

	s, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("flatten %s: %w", m.Name, err)
	}
	return s, nil
}
