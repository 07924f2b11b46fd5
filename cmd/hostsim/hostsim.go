// Package hostsim is the SDL2 host loop cpu16's cmd/cpu16 "run"
// command drives: it owns the window and surface, pumps keyboard
// events into the Chip's Keyboard port, renders the Screen's VRAM
// every frame, and overlays a small debug HUD, the way vcs_main.go
// owns the window/surface pair and feeds a fastImage to the emulator
// core it drives.
package hostsim

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/araneavalon/cpu16/cpu"
)

const (
	cellW, cellH = 8, 8
	cols, rows   = 96, 42 // covers the 0xC00-word text plane at 8px cells
	hudHeight    = 16
)

// Options configures a Run invocation.
type Options struct {
	Scale     int           // window pixel scale factor, minimum 1
	FrameRate time.Duration // best-effort frame pacing; 0 disables sleep
	HUD       bool          // overlay frame count / halted state
}

// Run drives chip under an SDL2 window until the window is closed or
// the Escape key is pressed. It is the sole place keyboard input and
// video output cross the process boundary into the Chip; the CPU
// itself advances on its own goroutine via Chip.Run in small bursts so
// the render loop stays responsive.
func Run(chip *cpu.Chip, opts Options) error {
	if opts.Scale < 1 {
		opts.Scale = 1
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()

	w, h := int32(cols*cellW*opts.Scale), int32(rows*cellH*opts.Scale+hudHeight)
	window, err := sdl.CreateWindow("cpu16", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	surface, err := window.GetSurface()
	if err != nil {
		return fmt.Errorf("get surface: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	frame := 0
	runErrCh := make(chan error, 1)
	go func() {
		for {
			if chip.Halted() {
				return
			}
			if err := chip.Run(1000); err != nil {
				runErrCh <- err
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	quit := false
	for !quit {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch t := event.(type) {
			case *sdl.QuitEvent:
				quit = true
			case *sdl.KeyboardEvent:
				if t.Type == sdl.KEYDOWN && t.Keysym.Sym == sdl.K_ESCAPE {
					quit = true
					break
				}
				if word, ok := encodeKeyEvent(t); ok {
					chip.Memory().Keyboard().Push(word)
				}
			}
		}

		select {
		case err := <-runErrCh:
			return fmt.Errorf("cpu: %w", err)
		default:
		}

		drawScreen(img, chip, opts.Scale)
		if opts.HUD {
			drawHUD(img, frame, chip.Halted())
		}
		draw.Draw(surfaceImage(surface), surface.Bounds(), img, image.Point{}, draw.Src)
		window.UpdateSurface()

		frame++
		if opts.FrameRate > 0 {
			time.Sleep(opts.FrameRate)
		}
		if chip.Halted() {
			quit = true
		}
	}
	return nil
}

// drawScreen renders the text plane as filled cells, one per
// character word's low byte, in lieu of the character-ROM glyph
// pipeline that's out of scope here.
func drawScreen(img *image.RGBA, chip *cpu.Chip, scale int) {
	vram := chip.Memory().Screen().VRAM()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			idx := y*cols + x
			if idx >= len(vram) {
				continue
			}
			ch := byte(vram[idx])
			c := color.RGBA{R: ch, G: ch, B: ch, A: 255}
			fillCell(img, x*cellW*scale, y*cellH*scale, cellW*scale, cellH*scale, c)
		}
	}
}

func fillCell(img *image.RGBA, x, y, w, h int, c color.Color) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			img.Set(x+dx, y+dy, c)
		}
	}
}

func drawHUD(img *image.RGBA, frame int, halted bool) {
	y := img.Bounds().Dy() - hudHeight + 11
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 255, 0, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, y),
	}
	d.DrawString(fmt.Sprintf("frame %d halted=%v", frame, halted))
}

// encodeKeyEvent packs a keyboard event into the word format
// Keyboard.Push expects: bits 0-10 scancode, bit 11 valid, bit 12
// extended (unused here), bits 13-15 modifier state.
func encodeKeyEvent(t *sdl.KeyboardEvent) (uint16, bool) {
	if t.Type != sdl.KEYDOWN {
		return 0, false
	}
	code := uint16(t.Keysym.Scancode) & 0x07FF
	mods := uint16(t.Keysym.Mod) >> 8 & 0x0007
	return code | 0x0800 | (mods << 13), true
}

// surfaceImage adapts an *sdl.Surface to image.Image/draw.Image
// without the per-pixel Convert overhead image/draw's generic
// drawer would otherwise pay, the way vcs_main.go's fastImage does.
type surfaceImg struct {
	s *sdl.Surface
}

func surfaceImage(s *sdl.Surface) draw.Image { return &surfaceImg{s: s} }

func (s *surfaceImg) ColorModel() color.Model { return s.s.ColorModel() }
func (s *surfaceImg) Bounds() image.Rectangle { return s.s.Bounds() }
func (s *surfaceImg) At(x, y int) color.Color { return s.s.At(x, y) }

func (s *surfaceImg) Set(x, y int, c color.Color) {
	pixels := s.s.Pixels()
	i := int32(y)*s.s.Pitch + int32(x)*int32(s.s.Format.BytesPerPixel)
	r, g, b, a := c.RGBA()
	pixels[i+0] = byte(b >> 8)
	pixels[i+1] = byte(g >> 8)
	pixels[i+2] = byte(r >> 8)
	pixels[i+3] = byte(a >> 8)
}
