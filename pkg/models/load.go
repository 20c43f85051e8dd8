package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taigrr/lumen/pkg/log"
)

var logger = log.New("models")

// ErrUnsupportedFormat is returned by Load for an unrecognised extension.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Load picks a loader from the file extension: .obj, .glb or .gltf.
func Load(path string) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return LoadOBJ(path)
	case ".glb", ".gltf":
		return LoadGLB(path)
	default:
		return nil, fmt.Errorf("load %s: %q: %w", path, ext, ErrUnsupportedFormat)
	}
}
