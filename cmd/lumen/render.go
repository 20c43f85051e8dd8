package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/trace"
	"github.com/urfave/cli"
)

// RenderFrame renders a still frame and saves it as a PNG.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	width, height := ctx.Int("width"), ctx.Int("height")
	spp, bounces := ctx.Int("spp"), ctx.Int("bounces")
	if width <= 0 || height <= 0 || spp <= 0 || bounces < 0 {
		return errors.New("width, height and spp must be positive and bounces non-negative")
	}

	mesh, cam, err := loadScene(ctx)
	if err != nil {
		return err
	}
	sc, err := mesh.Scene()
	if err != nil {
		return err
	}
	if sc.Emitters() == 0 {
		logger.Warning("scene has no emissive triangles; the frame will be black")
	}

	k, err := trace.NewKernel(sc, cam.TraceCamera(width, height, spp, bounces), traceSettings(ctx))
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := width * height
	pixels := make([]math3d.Vec4, n)
	logger.Noticef("rendering %dx%d at %d spp, %d bounces", width, height, spp, bounces)
	stats, err := k.Render(runCtx, trace.NewSeeds(n, ctx.Uint64("seed")), pixels)
	if err != nil {
		return err
	}

	fb := render.NewFramebuffer(width, height)
	if err := fb.Resolve(pixels, ctx.Float64("exposure")); err != nil {
		return err
	}
	out := ctx.String("out")
	if err := fb.SavePNG(out); err != nil {
		return err
	}

	displayFrameStats(stats)
	logger.Noticef("wrote %s", out)
	return nil
}

func displayFrameStats(stats trace.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pixels", "Samples", "Rays", "Batches", "Rays/s", "Render time"})
	table.Append([]string{
		fmt.Sprintf("%d", stats.Pixels),
		fmt.Sprintf("%d", stats.Samples),
		fmt.Sprintf("%d", stats.Rays),
		fmt.Sprintf("%d", stats.Batches),
		fmt.Sprintf("%.3g", stats.RaysPerSecond()),
		stats.Elapsed.String(),
	})
	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
