package tracer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/taigrr/lumen/pkg/render"
	"github.com/taigrr/lumen/pkg/scene"
)

// State is everything the worker and the controller share. Outside of
// Update it belongs to the worker.
type State struct {
	Renderer *Renderer
	Scene    *scene.Scene
	Camera   *render.Camera

	// Updated is set after every drawn frame. The controller clears it
	// once it has copied the buffer.
	Updated bool

	Stats Stats
}

// Reset discards accumulated samples and the time spent on them.
func (s *State) Reset() {
	s.Renderer.Reset()
	s.Stats.resetAccumulation()
}

// Worker draws frames on a background goroutine. The worker holds the state
// lock while it draws and gives it up only between frames, so a controller
// always sees whole frames. It parks while a controller is waiting, while
// held, and while the renderer has reached its sample cap.
type Worker struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state *State

	paused atomic.Bool
	held   atomic.Bool
	stop   atomic.Bool

	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewWorker returns a stopped worker over state.
func NewWorker(state *State) *Worker {
	w := &Worker{
		state: state,
		done:  make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Start launches the worker goroutine. It may be called once.
func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	logger.Infof("render worker started")
	go w.run()
}

func (w *Worker) run() {
	defer close(w.done)

	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		waitStart := time.Now()
		for w.idle() && !w.stop.Load() {
			w.cond.Wait()
		}
		if w.stop.Load() {
			return
		}
		w.state.Stats.WorkerWait += time.Since(waitStart)

		start := time.Now()
		if w.state.Renderer.Draw(w.state.Scene, w.state.Camera) {
			w.state.Stats.RecordFrame(time.Since(start), w.state.Renderer.Frames())
			w.state.Updated = true
		}
	}
}

func (w *Worker) idle() bool {
	return w.paused.Load() || w.held.Load() || w.state.Renderer.Done()
}

// Update runs fn with exclusive access to the state. It waits for a frame
// in progress to finish, then wakes the worker when fn returns.
func (w *Worker) Update(fn func(s *State)) {
	start := time.Now()
	w.paused.Store(true)
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state.Stats.ControllerWait += time.Since(start)
	w.state.Stats.Updates++
	fn(w.state)

	w.paused.Store(false)
	w.cond.Signal()
}

// Hold parks the worker after its current frame until Hold(false).
func (w *Worker) Hold(on bool) {
	w.Update(func(*State) {
		w.held.Store(on)
	})
}

// Held reports whether the worker is held.
func (w *Worker) Held() bool {
	return w.held.Load()
}

// Stop ends the worker after its current frame and waits for it to exit.
// It is safe to call more than once and on a worker that never started.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.stop.Store(true)
		w.mu.Lock()
		w.cond.Broadcast()
		w.mu.Unlock()

		if w.started.Load() {
			<-w.done
			logger.Infof("render worker stopped")
		}
	})
}
