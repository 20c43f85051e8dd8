package main

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
	"github.com/urfave/cli"
)

// SceneInfo loads a scene and prints its objects and array sizes.
func SceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	mesh, cam, err := loadScene(ctx)
	if err != nil {
		return err
	}
	sc, err := mesh.Scene()
	if err != nil {
		return err
	}

	cam.SetAspectRatio(1)
	logger.Noticef("scene %s\n%s", mesh.Name, sceneTable(sc, render.VisibleObjects(sc, cam.Frustum())))
	return nil
}

func sceneTable(sc *scene.Scene, visible int) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Object", "Triangles", "Emitting", "Min", "Max"})
	for i, o := range sc.Objects {
		name := fmt.Sprintf("#%d", i)
		if i < len(sc.Names) && sc.Names[i] != "" {
			name = sc.Names[i]
		}
		emitting := 0
		for _, t := range sc.Triangles[o.Start : o.Start+o.Count] {
			if !sc.Materials[t.Material].Emissive.IsZero() {
				emitting++
			}
		}
		box := sc.AABBs[o.AABB]
		table.Append([]string{
			name,
			fmt.Sprintf("%d", o.Count),
			fmt.Sprintf("%d", emitting),
			formatVec3(box.Min),
			formatVec3(box.Max),
		})
	}
	bounds := sc.Bounds()
	table.SetFooter([]string{
		fmt.Sprintf("%d objects, %d visible", len(sc.Objects), visible),
		fmt.Sprintf("%d", len(sc.Triangles)),
		fmt.Sprintf("%d", sc.Emitters()),
		formatVec3(bounds.Min),
		formatVec3(bounds.Max),
	})
	table.Render()
	fmt.Fprintf(&buf, "%d positions, %d normals, %d materials\n", len(sc.Positions), len(sc.Normals), len(sc.Materials))
	return buf.String()
}

func formatVec3(v math3d.Vec3) string {
	return fmt.Sprintf("%.3g, %.3g, %.3g", v.X, v.Y, v.Z)
}
