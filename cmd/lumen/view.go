package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/lumen/pkg/log"
	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
	"github.com/taigrr/lumen/pkg/trace"
	"github.com/urfave/cli"
)

const (
	// Orbit steps per key press and per dragged cell.
	keyYawStep    = 0.15
	keyPitchStep  = 0.1
	mouseStep     = 0.02
	zoomFactor    = 0.9
	spinImpulse   = 1.5
	settleEpsilon = 1e-5
)

// OrbitAxis eases one orbit parameter toward its target with a critically
// damped harmonica spring.
type OrbitAxis struct {
	Position float64
	Target   float64
	velocity float64
	spring   harmonica.Spring
}

// NewOrbitAxis creates an axis resting at v.
func NewOrbitAxis(fps int, v float64) OrbitAxis {
	return OrbitAxis{
		Position: v,
		Target:   v,
		// Frequency 6 settles in a fraction of a second without overshoot.
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

// Update advances the spring one frame and reports whether Position moved.
// Once within tol of the target at near-zero speed the axis snaps to rest.
func (a *OrbitAxis) Update(tol float64) bool {
	prev := a.Position
	a.Position, a.velocity = a.spring.Update(a.Position, a.velocity, a.Target)
	if math.Abs(a.Target-a.Position) < tol && math.Abs(a.velocity) < tol {
		a.Position, a.velocity = a.Target, 0
	}
	return a.Position != prev
}

// OrbitState holds the yaw, pitch and distance of the camera around its
// target.
type OrbitState struct {
	Yaw, Pitch, Distance OrbitAxis
	home                 [3]float64
	fps                  int
}

// NewOrbitState creates an orbit at rest at the given angles.
func NewOrbitState(fps int, yaw, pitch, distance float64) *OrbitState {
	o := &OrbitState{home: [3]float64{yaw, pitch, distance}, fps: fps}
	o.Reset()
	return o
}

// Reset puts the orbit back at its starting angles without easing.
func (o *OrbitState) Reset() {
	o.Yaw = NewOrbitAxis(o.fps, o.home[0])
	o.Pitch = NewOrbitAxis(o.fps, o.home[1])
	o.Distance = NewOrbitAxis(o.fps, o.home[2])
}

// Nudge moves the targets by the given deltas. Zoom multiplies the distance.
func (o *OrbitState) Nudge(yaw, pitch, zoom float64) {
	const maxPitch = math.Pi/2 - 0.01
	o.Yaw.Target += yaw
	o.Pitch.Target = max(-maxPitch, min(maxPitch, o.Pitch.Target+pitch))
	o.Distance.Target *= zoom
}

// Update advances every axis and reports whether any moved.
func (o *OrbitState) Update() bool {
	moved := o.Yaw.Update(settleEpsilon)
	moved = o.Pitch.Update(settleEpsilon) || moved
	moved = o.Distance.Update(settleEpsilon*o.Distance.Target) || moved
	return moved
}

// HUD draws a status line over the top of the picture.
type HUD struct {
	Show bool

	name      string
	triangles int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	frames    int
	rays      float64
}

// NewHUD creates a HUD for the named scene.
func NewHUD(name string, triangles int) *HUD {
	return &HUD{Show: true, name: name, triangles: triangles, fpsTime: time.Now()}
}

// Update records one displayed frame.
func (h *HUD) Update(accumulated int, stats trace.Stats) {
	h.frames = accumulated
	h.rays = stats.RaysPerSecond()
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Status returns the HUD line, ANSI styled.
func (h *HUD) Status() string {
	const (
		reset   = "\x1b[0m"
		bgBlack = "\x1b[40m"
		fgWhite = "\x1b[97m"
		fgGreen = "\x1b[92m"
		fgCyan  = "\x1b[96m"
	)
	return fmt.Sprintf("%s%s %.0f FPS %s%s %s%s %d tris, %d frames, %.3g rays/s %s",
		bgBlack, fgGreen, h.fps,
		fgWhite, h.name,
		reset+bgBlack, fgCyan, h.triangles, h.frames, h.rays, reset)
}

// Draw implements uv.Drawable.
func (h *HUD) Draw(scr uv.Screen, area uv.Rectangle) {
	if !h.Show {
		return
	}
	uv.NewStyledString(h.Status()).Draw(scr, uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1))
}

// viewer owns the progressive render state of the view command.
type viewer struct {
	scene    *scene.Scene
	cam      *render.Camera
	settings trace.Settings
	orbit    *OrbitState
	hud      *HUD

	spp, bounces int
	exposure     float64
	seed         uint64
	frame        uint64

	term   *uv.Terminal
	tr     *render.TerminalRenderer
	fb     *render.Framebuffer
	acc    *render.Accumulator
	pixels []math3d.Vec4
	kernel *trace.Kernel

	dragging bool
	lastX    int
	lastY    int
}

func (v *viewer) resize(width, height int) {
	v.tr = render.NewTerminalRenderer(v.term, width, height)
	w, h := v.tr.FramebufferSize()
	v.fb = render.NewFramebuffer(w, h)
	v.acc = render.NewAccumulator(w * h)
	v.pixels = make([]math3d.Vec4, w*h)
	v.kernel = nil
}

// handle applies one input event and reports whether the viewer should quit.
func (v *viewer) handle(ev uv.Event) bool {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.term.Erase()
		if err := v.term.Resize(ev.Width, ev.Height); err != nil {
			logger.Warningf("resize terminal: %v", err)
		}
		v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape", "ctrl+c"):
			return true
		case ev.MatchString("w", "up"):
			v.orbit.Nudge(0, keyPitchStep, 1)
		case ev.MatchString("s", "down"):
			v.orbit.Nudge(0, -keyPitchStep, 1)
		case ev.MatchString("a", "left"):
			v.orbit.Nudge(-keyYawStep, 0, 1)
		case ev.MatchString("d", "right"):
			v.orbit.Nudge(keyYawStep, 0, 1)
		case ev.MatchString("+", "="):
			v.orbit.Nudge(0, 0, zoomFactor)
		case ev.MatchString("-", "_"):
			v.orbit.Nudge(0, 0, 1/zoomFactor)
		case ev.MatchString("space"):
			v.orbit.Nudge((rand.Float64()-0.5)*spinImpulse, (rand.Float64()-0.5)*spinImpulse/2, 1)
		case ev.MatchString("r"):
			v.orbit.Reset()
			v.kernel = nil
		case ev.MatchString("?", "shift+/"):
			v.hud.Show = !v.hud.Show
		}

	case uv.MouseClickEvent:
		v.dragging = true
		v.lastX, v.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.dragging = false

	case uv.MouseMotionEvent:
		if v.dragging {
			v.orbit.Nudge(float64(ev.X-v.lastX)*mouseStep, float64(ev.Y-v.lastY)*mouseStep, 1)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.orbit.Nudge(0, 0, zoomFactor)
		case uv.MouseWheelDown:
			v.orbit.Nudge(0, 0, 1/zoomFactor)
		}
	}
	return false
}

// step renders and displays one progressive frame.
func (v *viewer) step(ctx context.Context) error {
	if v.orbit.Update() || v.kernel == nil {
		v.cam.Orbit(v.orbit.Yaw.Position, v.orbit.Pitch.Position, v.orbit.Distance.Position)
		k, err := trace.NewKernel(v.scene, v.cam.TraceCamera(v.fb.Width, v.fb.Height, v.spp, v.bounces), v.settings)
		if err != nil {
			return err
		}
		v.kernel = k
		v.acc.Reset()
	}

	seeds := trace.NewSeeds(len(v.pixels), v.seed+v.frame)
	v.frame++
	stats, err := v.kernel.Render(ctx, seeds, v.pixels)
	if err != nil {
		return err
	}
	avg, err := v.acc.Add(v.pixels)
	if err != nil {
		return err
	}
	if err := v.fb.Resolve(avg, v.exposure); err != nil {
		return err
	}
	v.hud.Update(v.acc.Frames(), stats)

	v.tr.Render(v.fb, v.hud)
	return v.tr.Flush()
}

// ViewScene renders the scene progressively in the terminal until the user
// quits.
func ViewScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	if ctx.Int("spp") <= 0 || ctx.Int("bounces") < 0 || ctx.Int("fps") <= 0 {
		return errors.New("spp and fps must be positive and bounces non-negative")
	}

	mesh, cam, err := loadScene(ctx)
	if err != nil {
		return err
	}
	sc, err := mesh.Scene()
	if err != nil {
		return err
	}

	fps := ctx.Int("fps")
	yaw, pitch, distance := cam.OrbitAngles()
	v := &viewer{
		scene:    sc,
		cam:      cam,
		settings: traceSettings(ctx),
		orbit:    NewOrbitState(fps, yaw, pitch, distance),
		hud:      NewHUD(mesh.Name, mesh.TriangleCount()),
		spp:      ctx.Int("spp"),
		bounces:  ctx.Int("bounces"),
		exposure: ctx.Float64("exposure"),
		seed:     ctx.Uint64("seed"),
	}

	v.term = uv.DefaultTerminal()
	width, height, err := v.term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := v.term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	// Log output would tear the picture.
	log.SetSink(io.Discard)
	defer log.SetSink(os.Stderr)

	v.term.EnterAltScreen()
	v.term.HideCursor()
	if err := v.term.Resize(width, height); err != nil {
		return fmt.Errorf("resize terminal: %w", err)
	}
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode
	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		v.term.ExitAltScreen()
		v.term.ShowCursor()
		v.term.Shutdown(context.Background())
	}()
	v.resize(width, height)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	events := v.term.Events()
	for {
		select {
		case <-runCtx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || v.handle(ev) {
				return nil
			}
			continue
		case <-ticker.C:
		}

		if err := v.step(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}
