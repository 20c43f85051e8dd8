package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/lumen/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// CalculateNormals fills in smooth vertex normals when the file has
	// none, which fixes the orientation of every face normal.
	CalculateNormals bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
	}
}

// LoadGLB loads a binary GLTF (.glb) or JSON GLTF file.
func LoadGLB(path string) (*Mesh, error) {
	loader := NewGLTFLoader()
	return loader.Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	start := time.Now()
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := l.Convert(doc, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	logger.Infof("parsed %s: %d vertices, %d triangles, %d materials, %d groups in %s",
		path, mesh.VertexCount(), mesh.TriangleCount(), mesh.MaterialCount(), len(mesh.Groups),
		time.Since(start))
	return mesh, nil
}

// Convert builds a Mesh from an already decoded document. Every triangle
// primitive becomes one group. Node transforms are not applied.
func (l *GLTFLoader) Convert(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	for _, m := range doc.Materials {
		mesh.AddMaterial(convertMaterial(m))
	}

	hasNormals := false
	for i, m := range doc.Meshes {
		meshName := m.Name
		if meshName == "" {
			meshName = fmt.Sprintf("mesh%d", i)
		}
		found, err := l.processMesh(doc, m, meshName, mesh)
		if err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", meshName, err)
		}
		hasNormals = hasNormals || found
	}

	if l.CalculateNormals && !hasNormals {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// convertMaterial keeps the RGB base colour as the diffuse albedo and the
// emissive factor, scaled by KHR_materials_emissive_strength when present.
func convertMaterial(m *gltf.Material) Material {
	mat := Material{Name: m.Name, Diffuse: math3d.Splat(1)}
	if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		c := pbr.BaseColorFactor
		mat.Diffuse = math3d.V3(c[0], c[1], c[2])
	}
	e := m.EmissiveFactor
	mat.Emissive = math3d.V3(e[0], e[1], e[2])
	if s, ok := emissiveStrength(m.Extensions); ok {
		mat.Emissive = mat.Emissive.Scale(s)
	}
	return mat
}

// emissiveStrength reads KHR_materials_emissive_strength, which the decoder
// leaves as raw JSON.
func emissiveStrength(exts gltf.Extensions) (float64, bool) {
	var ext struct {
		EmissiveStrength *float64 `json:"emissiveStrength"`
	}
	switch v := exts["KHR_materials_emissive_strength"].(type) {
	case json.RawMessage:
		if json.Unmarshal(v, &ext) != nil {
			return 0, false
		}
	case map[string]any:
		if s, ok := v["emissiveStrength"].(float64); ok {
			return s, true
		}
	}
	if ext.EmissiveStrength == nil {
		return 0, false
	}
	return *ext.EmissiveStrength, true
}

// processMesh extracts geometry from a GLTF mesh and reports whether any
// primitive carried vertex normals.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, name string, mesh *Mesh) (bool, error) {
	hasNormals := false
	for pi, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return false, fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return false, fmt.Errorf("read normals: %w", err)
			}
			hasNormals = true
		}

		material := -1
		if prim.Material != nil {
			material = *prim.Material
		}

		baseVertex := len(mesh.Vertices)
		for i := range positions {
			v := MeshVertex{Position: positions[i]}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return false, fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		groupName := name
		if len(m.Primitives) > 1 {
			groupName = fmt.Sprintf("%s.%d", name, pi)
		}
		mesh.BeginGroup(groupName)
		for i := 0; i+2 < len(indices); i += 3 {
			for _, idx := range indices[i : i+3] {
				if idx >= len(positions) {
					return false, fmt.Errorf("index %d out of range (%d vertices)", idx, len(positions))
				}
			}
			mesh.AddFace(Face{
				V: [3]int{
					baseVertex + indices[i],
					baseVertex + indices[i+1],
					baseVertex + indices[i+2],
				},
				Material: material,
			})
		}
	}

	return hasNormals, nil
}

var errAccessor = errors.New("unsupported accessor")

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, errAccessor)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v: %w", accessor.Type, accessor.ComponentType, errAccessor)
	}

	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		result[i] = math3d.V3(
			float64(readFloat32(b[0:])),
			float64(readFloat32(b[4:])),
			float64(readFloat32(b[8:])),
		)
	}
	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, errAccessor)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("index accessor type %v: %w", accessor.Type, errAccessor)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("index component type %v: %w", accessor.ComponentType, errAccessor)
	}

	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		switch size {
		case 1:
			result[i] = int(b[0])
		case 2:
			result[i] = int(uint16(b[0]) | uint16(b[1])<<8)
		case 4:
			result[i] = int(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
		}
	}
	return result, nil
}

// accessorBytes returns the accessor's bytes starting at its first element,
// bounds-checked for Count elements, plus the element stride.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view: %w", errAccessor)
	}
	if *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("buffer view %d: %w", *accessor.BufferView, errAccessor)
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	if bufferView.Buffer >= len(doc.Buffers) {
		return nil, 0, fmt.Errorf("buffer %d: %w", bufferView.Buffer, errAccessor)
	}
	// gltf.Open resolves external and data-URI buffers into Data.
	bufData := doc.Buffers[bufferView.Buffer].Data
	if bufData == nil {
		return nil, 0, fmt.Errorf("buffer has no data: %w", errAccessor)
	}

	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := bufferView.ByteOffset + accessor.ByteOffset
	if accessor.Count == 0 {
		return nil, stride, nil
	}
	end := start + (accessor.Count-1)*stride + elemSize
	if end > len(bufData) || end > bufferView.ByteOffset+bufferView.ByteLength {
		return nil, 0, fmt.Errorf("accessor reads past buffer end: %w", errAccessor)
	}
	return bufData[start:end], stride, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
