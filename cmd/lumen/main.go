// lumen renders triangle scenes with a Monte Carlo path tracer, either to a
// PNG file or progressively in the terminal.
//
// Usage:
//
//	lumen render [options] [model.obj|model.glb|cornell]
//	lumen view   [options] [model.obj|model.glb|cornell]
//	lumen info   [options] [model.obj|model.glb|cornell]
//
// Without a model argument the built-in Cornell box is used.
package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lumen"
	app.Usage = "path trace triangle scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "log level (debug, info, notice, warning, error)",
			EnvVar: "LUMEN_LOG_LEVEL",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a still frame to a PNG file",
			Description: `
Load a scene, trace every pixel with the requested number of samples and
bounces on all available cores, and write the exposed result as a PNG.

The scene argument is a Wavefront OBJ file, a glTF/GLB file or "cornell".`,
			ArgsUsage: "[scene]",
			Flags: append(append(sceneFlags(), traceFlags()...),
				cli.IntFlag{
					Name:   "width",
					Value:  512,
					Usage:  "frame width",
					EnvVar: "LUMEN_WIDTH",
				},
				cli.IntFlag{
					Name:   "height",
					Value:  512,
					Usage:  "frame height",
					EnvVar: "LUMEN_HEIGHT",
				},
				cli.IntFlag{
					Name:   "spp",
					Value:  16,
					Usage:  "samples per pixel",
					EnvVar: "LUMEN_SPP",
				},
				cli.StringFlag{
					Name:   "out, o",
					Value:  "frame.png",
					Usage:  "image filename for the rendered frame",
					EnvVar: "LUMEN_OUT",
				},
			),
			Action: RenderFrame,
		},
		{
			Name:  "view",
			Usage: "render the scene progressively in the terminal",
			Description: `
Trace the scene at terminal resolution, averaging one frame after another
until the camera moves.

Controls:
  Mouse drag, W/A/S/D, arrows   orbit
  Scroll, +/-                   zoom
  Space                         random spin
  R                             reset view
  ?                             toggle HUD
  Esc, Ctrl+C                   quit`,
			ArgsUsage: "[scene]",
			Flags: append(append(sceneFlags(), traceFlags()...),
				cli.IntFlag{
					Name:   "spp",
					Value:  1,
					Usage:  "samples per pixel per frame",
					EnvVar: "LUMEN_SPP",
				},
				cli.IntFlag{
					Name:  "fps",
					Value: 30,
					Usage: "target frames per second",
				},
			),
			Action: ViewScene,
		},
		{
			Name:      "info",
			Usage:     "print scene statistics",
			ArgsUsage: "[scene]",
			Flags:     sceneFlags(),
			Action:    SceneInfo,
		},
	}
	return app
}
