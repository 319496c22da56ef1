package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/lumen/pkg/math3d"
	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/tracer"
)

const (
	moveImpulse = 0.15 // units per frame added by a movement key
	turnImpulse = 0.02 // radians per frame added by an arrow key
	dragImpulse = 0.01 // radians per frame added per cell of mouse drag
	statsPeriod = time.Second
)

// input collects the events seen since the last frame.
type input struct {
	quit       bool
	resized    bool
	width      int
	height     int
	reset      bool
	home       bool
	toggleHold bool
	toggleNEE  bool
	toggleDbg  bool
	depth      int // debug depth change
	save       bool
}

// viewer is the interactive front end. The event goroutine only forwards
// events; everything else happens on the frame loop.
type viewer struct {
	term *uv.Terminal

	width, height int
	out           *render.TerminalRenderer
	fb            *render.Framebuffer
	lut           *render.GammaLUT
	display       []math3d.Vec3

	worker *tracer.Worker
	home   render.Camera
	motion *motion
	hud    *HUD

	mouseDown    bool
	lastX, lastY int
	statsAt      time.Time
}

func runView(ctx context.Context, opts *options, path string) error {
	closeLog, err := setupLogging(opts, false)
	if err != nil {
		return err
	}
	defer closeLog()

	sc, in, err := setup(opts, path)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1002h") // Button-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	fps := max(opts.fps, 1)
	v := &viewer{
		term:   term,
		lut:    render.NewGammaLUT(render.DefaultLUTSize, render.DefaultGamma),
		home:   *sc.Camera,
		motion: newMotion(fps),
		hud:    NewHUD(filepath.Base(path), len(sc.Triangles)),
	}
	v.layout(width, height)

	r := tracer.NewRenderer(v.fb.Width, v.fb.Height, in)
	r.MaxSamples = opts.samples
	r.Workers = opts.workers
	v.worker = tracer.NewWorker(&tracer.State{
		Renderer: r,
		Scene:    sc,
		Camera:   sc.Camera,
	})
	v.worker.Start()

	cleanup := func() {
		v.worker.Stop()
		fmt.Fprint(os.Stdout, "\x1b[?1002l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	events := make(chan uv.Event, 256)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	targetDuration := time.Second / time.Duration(fps)
	for {
		start := time.Now()

		frame := v.drain(events)
		if frame.quit {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updated := v.update(frame)
		if updated {
			v.fb.Resolve(v.display, v.lut)
			v.out.Render(v.fb)
			if err := v.out.Flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
		if frame.save {
			v.save()
		}

		v.hud.UpdateFPS()
		v.hud.Render(v.width, v.height)

		if elapsed := time.Since(start); elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// layout sizes the presenter and framebuffer for a width x height terminal.
func (v *viewer) layout(width, height int) {
	v.width, v.height = width, height
	v.out = render.NewTerminalRenderer(v.term, width, height)
	fbW, fbH := v.out.FramebufferSize()
	v.fb = render.NewFramebuffer(fbW, fbH)
}

// drain applies every queued event to the motion state and returns the
// discrete actions.
func (v *viewer) drain(events <-chan uv.Event) input {
	var in input
	for {
		select {
		case ev := <-events:
			v.handle(ev, &in)
		default:
			return in
		}
	}
}

func (v *viewer) handle(ev uv.Event, in *input) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		in.resized = true
		in.width, in.height = ev.Width, ev.Height

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape", "ctrl+c"):
			in.quit = true
		case ev.MatchString("w"):
			v.motion.Push(moveImpulse, 0, 0)
		case ev.MatchString("s"):
			v.motion.Push(-moveImpulse, 0, 0)
		case ev.MatchString("a"):
			v.motion.Push(0, -moveImpulse, 0)
		case ev.MatchString("d"):
			v.motion.Push(0, moveImpulse, 0)
		case ev.MatchString("e"):
			v.motion.Push(0, 0, moveImpulse)
		case ev.MatchString("q"):
			v.motion.Push(0, 0, -moveImpulse)
		case ev.MatchString("up"):
			v.motion.Turn(turnImpulse, 0)
		case ev.MatchString("down"):
			v.motion.Turn(-turnImpulse, 0)
		case ev.MatchString("left"):
			v.motion.Turn(0, turnImpulse)
		case ev.MatchString("right"):
			v.motion.Turn(0, -turnImpulse)
		case ev.MatchString("i"):
			in.toggleDbg = !in.toggleDbg
		case ev.MatchString("."):
			in.depth++
		case ev.MatchString(","):
			in.depth--
		case ev.MatchString("l"):
			in.toggleNEE = !in.toggleNEE
		case ev.MatchString("r"):
			in.reset = true
		case ev.MatchString("h"):
			in.home = true
		case ev.MatchString("p"):
			in.toggleHold = !in.toggleHold
		case ev.MatchString("o"):
			in.save = true
		case ev.MatchString("?", "shift+/"):
			v.hud.Toggle()
		}

	case uv.MouseClickEvent:
		v.mouseDown = true
		v.lastX, v.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		if v.mouseDown {
			dx := ev.X - v.lastX
			dy := ev.Y - v.lastY
			v.motion.Turn(-float64(dy)*dragImpulse, -float64(dx)*dragImpulse)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.motion.Push(moveImpulse, 0, 0)
		case uv.MouseWheelDown:
			v.motion.Push(-moveImpulse, 0, 0)
		}
	}
}

// update applies one frame of input to the shared state and copies the
// latest image when the worker has produced one.
func (v *viewer) update(in input) bool {
	if in.resized {
		v.term.Erase()
		v.term.Resize(in.width, in.height)
		v.layout(in.width, in.height)
	}
	if in.home {
		v.motion.Stop()
	}
	if in.toggleHold {
		v.worker.Hold(!v.worker.Held())
	}
	step := v.motion.Step()

	var updated bool
	v.worker.Update(func(s *tracer.State) {
		reset := in.reset

		if in.resized {
			s.Renderer.Resize(v.fb.Width, v.fb.Height)
			reset = true
		}
		if in.home {
			*s.Camera = v.home
			reset = true
		}
		if step.moving() {
			s.Camera.MoveForward(step.forward)
			s.Camera.MoveRight(step.right)
			s.Camera.MoveUp(step.up)
			s.Camera.Rotate(step.pitch, step.yaw, 0)
			reset = true
		}
		if in.toggleNEE {
			s.Renderer.Integrator.LightSampling = !s.Renderer.Integrator.LightSampling
			reset = true
		}
		if in.toggleDbg {
			s.Renderer.Debug = !s.Renderer.Debug
			reset = true
		}
		if s.Renderer.Debug && in.depth != 0 {
			s.Scene.SetDebugDepth(s.Scene.DebugDepth() + in.depth)
			reset = true
		}
		if reset {
			s.Reset()
			logger.Debugf("accumulation reset")
		}

		if s.Updated {
			v.display = s.Renderer.Snapshot(v.display)
			s.Updated = false
			updated = true
		}

		if time.Since(v.statsAt) >= statsPeriod {
			v.statsAt = time.Now()
			st := s.Stats.Take()
			v.hud.SetStats(st)
			logger.Infof("samples %d, accumulated %s, frame %s, worker wait %s, controller wait %s",
				st.Samples, st.Accumulated, st.AverageFrame(), st.WorkerWait, st.AverageWait())
		}
		v.hud.SetMode(hudMode{
			samples:       s.Renderer.Frames(),
			sampleCap:     s.Renderer.SampleCap(),
			debug:         s.Renderer.Debug,
			depth:         s.Scene.DebugDepth(),
			lightSampling: s.Renderer.Integrator.LightSampling,
			held:          v.worker.Held(),
		})
	})

	// A resized renderer has nothing to show until its first frame.
	return updated && len(v.display) == v.fb.Width*v.fb.Height
}

// save writes the displayed image next to the working directory.
func (v *viewer) save() {
	name := fmt.Sprintf("lumen-%s.png", time.Now().Format("20060102-150405"))
	if err := v.fb.SavePNG(name); err != nil {
		logger.Errorf("save image: %v", err)
		v.hud.Flash("save failed: " + err.Error())
		return
	}
	logger.Noticef("saved %s", name)
	v.hud.Flash("saved " + name)
}
