package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/taigrr/lumen/pkg/geom"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/models"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/trace"
	"github.com/urfave/cli"
)

const builtinScene = "cornell"

func sceneFlags() []cli.Flag {
	return []cli.Flag{
		cli.Float64Flag{
			Name:   "fov",
			Usage:  "vertical field of view in degrees (0 keeps the scene default)",
			EnvVar: "LUMEN_FOV",
		},
		cli.StringFlag{
			Name:   "eye",
			Usage:  "camera position as x,y,z (default frames the scene)",
			EnvVar: "LUMEN_EYE",
		},
		cli.StringFlag{
			Name:   "target",
			Usage:  "camera look-at point as x,y,z",
			EnvVar: "LUMEN_TARGET",
		},
		cli.Float64Flag{
			Name:   "fit",
			Usage:  "scale loaded models so their largest side has this length (0 disables)",
			EnvVar: "LUMEN_FIT",
		},
		cli.Float64Flag{
			Name:   "area-light",
			Usage:  "radiance of an emissive quad added above loaded models (0 disables)",
			Value:  5,
			EnvVar: "LUMEN_AREA_LIGHT",
		},
	}
}

func traceFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:   "bounces",
			Value:  4,
			Usage:  "maximum number of bounces after the primary hit",
			EnvVar: "LUMEN_BOUNCES",
		},
		cli.Uint64Flag{
			Name:   "seed",
			Value:  1,
			Usage:  "master seed for the per-pixel random streams",
			EnvVar: "LUMEN_SEED",
		},
		cli.Float64Flag{
			Name:   "exposure",
			Value:  1.0,
			Usage:  "camera exposure for tone-mapping",
			EnvVar: "LUMEN_EXPOSURE",
		},
		cli.Float64Flag{
			Name:   "emissive-scale",
			Value:  1.0,
			Usage:  "multiplier applied to every emitted radiance",
			EnvVar: "LUMEN_EMISSIVE_SCALE",
		},
		cli.IntFlag{
			Name:   "workers",
			Usage:  "concurrent pixel batches (0 uses every CPU)",
			EnvVar: "LUMEN_WORKERS",
		},
		cli.IntFlag{
			Name:   "batch",
			Value:  trace.DefaultSettings().BatchSize,
			Usage:  "pixels per dispatched batch",
			EnvVar: "LUMEN_BATCH",
		},
	}
}

// loadScene reads the scene named by the first argument, or the Cornell box,
// and positions a camera for it.
func loadScene(ctx *cli.Context) (*models.Mesh, *render.Camera, error) {
	cam := render.NewCamera()
	name := ctx.Args().First()

	var mesh *models.Mesh
	if name == "" || name == builtinScene {
		mesh = models.CornellBox()
		eye, target, fovy := models.CornellCamera()
		cam.SetFOV(fovy)
		cam.SetTarget(target)
		cam.SetPosition(eye)
	} else {
		var err error
		if mesh, err = models.Load(name); err != nil {
			return nil, nil, err
		}
		if size := ctx.Float64("fit"); size > 0 {
			mesh.Fit(size)
		}
		if radiance := ctx.Float64("area-light"); radiance > 0 {
			mesh.AddAreaLight(math3d.Splat(radiance))
			logger.Infof("added area light with radiance %g", radiance)
		}
		if mesh.TriangleCount() == 0 {
			return nil, nil, fmt.Errorf("load %s: no triangles", name)
		}
	}

	if fov := ctx.Float64("fov"); fov > 0 {
		cam.SetFOV(fov * math.Pi / 180)
	}
	if name != "" && name != builtinScene {
		cam.Frame(geom.NewAABB(mesh.BoundsMin, mesh.BoundsMax))
	}
	if s := ctx.String("target"); s != "" {
		v, err := parseVec3(s)
		if err != nil {
			return nil, nil, fmt.Errorf("parse target: %w", err)
		}
		cam.SetTarget(v)
	}
	if s := ctx.String("eye"); s != "" {
		v, err := parseVec3(s)
		if err != nil {
			return nil, nil, fmt.Errorf("parse eye: %w", err)
		}
		cam.SetPosition(v)
	}
	return mesh, cam, nil
}

// traceSettings applies the tracing flags on top of the defaults.
func traceSettings(ctx *cli.Context) trace.Settings {
	s := trace.DefaultSettings()
	s.EmissiveScale = ctx.Float64("emissive-scale")
	s.Workers = ctx.Int("workers")
	if b := ctx.Int("batch"); b > 0 {
		s.BatchSize = b
	}
	return s
}

// parseVec3 parses "x,y,z".
func parseVec3(s string) (math3d.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math3d.Vec3{}, fmt.Errorf("%q: expected x,y,z", s)
	}
	var c [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("%q: %w", s, err)
		}
		c[i] = v
	}
	return math3d.V3(c[0], c[1], c[2]), nil
}
