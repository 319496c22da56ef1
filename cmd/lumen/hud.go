package main

import (
	"fmt"
	"time"

	"github.com/taigrr/lumen/pkg/tracer"
)

const flashDuration = 3 * time.Second

// hudMode is the renderer state shown on the bottom row.
type hudMode struct {
	samples       int
	sampleCap     int
	debug         bool
	depth         int
	lightSampling bool
	held          bool
}

// HUD renders an overlay with scene info and renderer status
type HUD struct {
	filename  string
	triangles int
	visible   bool

	fps       float64
	fpsFrames int
	fpsTime   time.Time

	stats tracer.Stats
	mode  hudMode

	flash   string
	flashAt time.Time
}

// NewHUD creates a new HUD
func NewHUD(filename string, triangles int) *HUD {
	return &HUD{
		filename:  filename,
		triangles: triangles,
		visible:   true,
		fpsTime:   time.Now(),
	}
}

// Toggle shows or hides the overlay.
func (h *HUD) Toggle() {
	h.visible = !h.visible
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// SetStats records the worker timings of the last period.
func (h *HUD) SetStats(s tracer.Stats) {
	h.stats = s
}

// SetMode records the renderer state.
func (h *HUD) SetMode(m hudMode) {
	h.mode = m
}

// Flash shows msg on the bottom row for a few seconds.
func (h *HUD) Flash(msg string) {
	h.flash = msg
	h.flashAt = time.Now()
}

// Render draws the HUD overlay directly to the terminal
func (h *HUD) Render(width, height int) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		dim       = "\x1b[2m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgYellow  = "\x1b[93m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows (so toggling off works)
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)

	if h.flash != "" && time.Since(h.flashAt) < flashDuration {
		msg := fmt.Sprintf("%s%s%s %s %s", bgBlack, bold, fgYellow, h.flash, reset)
		fmt.Print(moveTo(height, max((width-len(h.flash))/2, 1)) + msg)
		return
	}

	if !h.visible {
		return
	}

	// Top left: FPS and frame time
	fmt.Printf("%s%s%s %.0f FPS  %s/frame %s", moveTo(1, 1), bgBlack, fgGreen,
		h.fps, h.stats.AverageFrame().Round(time.Millisecond), reset)

	// Top middle: filename
	titleStr := fmt.Sprintf("%s%s%s %s %s", bold, bgBlack, fgWhite, h.filename, reset)
	fmt.Print(moveTo(1, max((width-len(h.filename)-2)/2, 1)) + titleStr)

	// Top right: triangle count
	tris := fmt.Sprintf("%d tris", h.triangles)
	fmt.Printf("%s%s%s%s %s %s", moveTo(1, max(width-len(tris)-1, 1)), bgBlack, fgCyan, bold, tris, reset)

	// Bottom left: samples
	samples := fmt.Sprintf("%d spp", h.mode.samples)
	if h.mode.sampleCap > 0 {
		samples = fmt.Sprintf("%d/%d spp", h.mode.samples, h.mode.sampleCap)
	}
	status := samples
	switch {
	case h.mode.held:
		status += "  held"
	case h.mode.sampleCap > 0 && h.mode.samples >= h.mode.sampleCap:
		status += "  done"
	}
	fmt.Print(moveTo(height, 1) + fmt.Sprintf("%s%s %s %s", bgBlack, fgWhite, status, reset))

	// Bottom right: modes
	check := func(on bool) string {
		if on {
			return "[✓]"
		}
		return "[ ]"
	}
	modes := fmt.Sprintf("%s Light sampling  %s BVH depth %d", check(h.mode.lightSampling), check(h.mode.debug), h.mode.depth)
	fmt.Print(moveTo(height, max(width-len([]rune(modes))-1, 1)) +
		fmt.Sprintf("%s%s%s %s %s", bgBlack, dim, fgYellow, modes, reset))
}
