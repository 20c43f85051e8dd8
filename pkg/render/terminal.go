package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells and draws them on the
// screen, implementing uv.Drawable. Each terminal row shows two framebuffer
// rows: ▀ with the top pixel as foreground and the bottom as background.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1
		if topY >= fb.Height {
			break
		}

		for col := area.Min.X; col < area.Max.X && col-area.Min.X < fb.Width; col++ {
			x := col - area.Min.X
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(x, topY)),
					Bg: rgbaToColor(fb.GetPixel(x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}

// TerminalRenderer owns the framebuffer sized to a terminal and pushes it to
// the screen.
type TerminalRenderer struct {
	term          *uv.Terminal
	width, height int
}

// NewTerminalRenderer creates a renderer for a width x height cell terminal.
func NewTerminalRenderer(term *uv.Terminal, width, height int) *TerminalRenderer {
	return &TerminalRenderer{term: term, width: width, height: height}
}

// FramebufferSize returns the pixel size that fills the terminal: one
// column per cell and two rows per cell.
func (r *TerminalRenderer) FramebufferSize() (width, height int) {
	return r.width, r.height * 2
}

// Render draws fb into the terminal's back buffer, then each overlay on
// top of it.
func (r *TerminalRenderer) Render(fb *Framebuffer, overlays ...uv.Drawable) {
	r.term.Draw(uv.DrawableFunc(func(scr uv.Screen, area uv.Rectangle) {
		fb.Draw(scr, area)
		for _, o := range overlays {
			o.Draw(scr, area)
		}
	}))
}

// Flush displays the back buffer.
func (r *TerminalRenderer) Flush() error {
	return r.term.Display()
}
