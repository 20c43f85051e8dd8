package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/taigrr/lumen/pkg/math3d"
)

// ParseError reports a malformed line in an OBJ or MTL file.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrUnknownMaterial is returned by usemtl for a name no mtllib defined.
var ErrUnknownMaterial = errors.New("unknown material")

// LoadOBJ loads a Wavefront OBJ file. Material libraries are resolved
// relative to the file's directory.
func LoadOBJ(p string) (*Mesh, error) {
	return LoadOBJFS(os.DirFS(filepath.Dir(p)), filepath.Base(p))
}

// LoadOBJFS loads the OBJ file name from fsys.
//
// Supported statements: v, vn, f (any polygon, fan-triangulated; v, v/vt,
// v//vn and v/vt/vn references, negative indices allowed), o and g, mtllib
// and usemtl. MTL files contribute newmtl, Kd and Ke. Everything else is
// ignored. A face takes its normal from the first vertex's vn reference.
func LoadOBJFS(fsys fs.FS, name string) (*Mesh, error) {
	start := time.Now()
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	r := &objReader{
		fsys:     fsys,
		dir:      path.Dir(name),
		mesh:     NewMesh(path.Base(name)),
		matIndex: make(map[string]int),
		material: -1,
	}
	if err := r.parse(name, f); err != nil {
		return nil, err
	}
	r.mesh.CalculateBounds()

	logger.Infof("parsed %s: %d vertices, %d triangles, %d materials, %d groups in %s",
		name, r.mesh.VertexCount(), r.mesh.TriangleCount(), r.mesh.MaterialCount(), len(r.mesh.Groups),
		time.Since(start))
	return r.mesh, nil
}

type objReader struct {
	fsys     fs.FS
	dir      string
	mesh     *Mesh
	normals  []math3d.Vec3
	matIndex map[string]int
	material int
}

func (r *objReader) parse(file string, in io.Reader) error {
	lineNum := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		var err error
		switch tokens[0] {
		case "v":
			var v math3d.Vec3
			if v, err = parseVec3(tokens); err == nil {
				r.mesh.Vertices = append(r.mesh.Vertices, MeshVertex{Position: v})
			}
		case "vn":
			var v math3d.Vec3
			if v, err = parseVec3(tokens); err == nil {
				r.normals = append(r.normals, v.Normalize())
			}
		case "o", "g":
			name := r.mesh.Name
			if len(tokens) > 1 {
				name = strings.Join(tokens[1:], " ")
			}
			r.mesh.BeginGroup(name)
		case "mtllib":
			for _, lib := range tokens[1:] {
				if err = r.parseMaterials(path.Join(r.dir, lib)); err != nil {
					return err
				}
			}
		case "usemtl":
			if len(tokens) != 2 {
				err = fmt.Errorf("usemtl: expected 1 argument; got %d", len(tokens)-1)
				break
			}
			idx, ok := r.matIndex[tokens[1]]
			if !ok {
				err = fmt.Errorf("usemtl %q: %w", tokens[1], ErrUnknownMaterial)
				break
			}
			r.material = idx
		case "f":
			err = r.parseFace(tokens)
		}
		if err != nil {
			return &ParseError{File: file, Line: lineNum, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	// A trailing group with no faces carries nothing.
	if n := len(r.mesh.Groups); n > 0 && r.mesh.Groups[n-1].Count == 0 {
		r.mesh.Groups = r.mesh.Groups[:n-1]
	}
	return nil
}

// parseFace fan-triangulates a polygon around its first vertex.
func (r *objReader) parseFace(tokens []string) error {
	if len(tokens) < 4 {
		return fmt.Errorf("f: expected at least 3 vertices; got %d", len(tokens)-1)
	}
	verts := make([]int, 0, len(tokens)-1)
	var normal math3d.Vec3
	for i, tok := range tokens[1:] {
		refs := strings.Split(tok, "/")
		v, err := selectIndex(refs[0], len(r.mesh.Vertices))
		if err != nil {
			return fmt.Errorf("f: vertex %d: %w", i, err)
		}
		verts = append(verts, v)
		if i == 0 && len(refs) == 3 && refs[2] != "" {
			n, err := selectIndex(refs[2], len(r.normals))
			if err != nil {
				return fmt.Errorf("f: normal %d: %w", i, err)
			}
			normal = r.normals[n]
		}
	}
	for i := 1; i+1 < len(verts); i++ {
		r.mesh.AddFace(Face{
			V:        [3]int{verts[0], verts[i], verts[i+1]},
			Material: r.material,
			Normal:   normal,
		})
	}
	return nil
}

func (r *objReader) parseMaterials(name string) error {
	f, err := r.fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open mtllib: %w", err)
	}
	defer f.Close()

	lineNum := 0
	cur := -1
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		var err error
		switch tokens[0] {
		case "newmtl":
			if len(tokens) != 2 {
				err = fmt.Errorf("newmtl: expected 1 argument; got %d", len(tokens)-1)
				break
			}
			if _, exists := r.matIndex[tokens[1]]; exists {
				err = fmt.Errorf("material %q already defined", tokens[1])
				break
			}
			cur = r.mesh.AddMaterial(Material{Name: tokens[1]})
			r.matIndex[tokens[1]] = cur
		case "Kd", "Ke":
			if cur < 0 {
				err = fmt.Errorf("%s without newmtl", tokens[0])
				break
			}
			var v math3d.Vec3
			if v, err = parseVec3(tokens); err != nil {
				break
			}
			if tokens[0] == "Kd" {
				r.mesh.Materials[cur].Diffuse = v
			} else {
				r.mesh.Materials[cur].Emissive = v
			}
		}
		if err != nil {
			return &ParseError{File: name, Line: lineNum, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

// selectIndex converts a 1-based or negative (relative to the end) OBJ
// reference into a 0-based index into a list of length n.
func selectIndex(tok string, n int) (int, error) {
	idx, err := strconv.Atoi(tok)
	if err != nil {
		return 0, err
	}
	var i int
	if idx < 0 {
		i = n + idx
	} else {
		i = idx - 1
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d out of bounds (have %d)", idx, n)
	}
	return i, nil
}

func parseVec3(tokens []string) (math3d.Vec3, error) {
	if len(tokens) < 4 {
		return math3d.Vec3{}, fmt.Errorf("%s: expected 3 arguments; got %d", tokens[0], len(tokens)-1)
	}
	var c [3]float64
	for i := range c {
		v, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("%s: %w", tokens[0], err)
		}
		c[i] = v
	}
	return math3d.V3(c[0], c[1], c[2]), nil
}
