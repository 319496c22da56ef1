package tracer

import "time"

// Stats are the timings the worker and the controller record. Period
// counters cover the time since the last Take; Accumulated and Samples cover
// the time since the last reset.
type Stats struct {
	// Frames drawn this period.
	Frames int
	// Time spent drawing this period.
	RenderTime time.Duration
	// Time the worker spent parked this period.
	WorkerWait time.Duration
	// Time the controller spent waiting for the lock this period.
	ControllerWait time.Duration
	// Updates applied by the controller this period.
	Updates int

	// Draw time of the most recent frame.
	LastFrame time.Duration
	// Draw time since the last reset.
	Accumulated time.Duration
	// Samples per pixel since the last reset.
	Samples int
}

// RecordFrame adds a drawn frame that took d and brought the total to samples.
func (s *Stats) RecordFrame(d time.Duration, samples int) {
	s.Frames++
	s.RenderTime += d
	s.LastFrame = d
	s.Accumulated += d
	s.Samples = samples
}

func (s *Stats) resetAccumulation() {
	s.Accumulated = 0
	s.Samples = 0
}

// Take returns the current stats and starts a new period.
func (s *Stats) Take() Stats {
	out := *s
	s.Frames = 0
	s.RenderTime = 0
	s.WorkerWait = 0
	s.ControllerWait = 0
	s.Updates = 0
	return out
}

// AverageFrame returns the mean draw time this period.
func (s Stats) AverageFrame() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.RenderTime / time.Duration(s.Frames)
}

// AverageWait returns the mean time the controller waited per update.
func (s Stats) AverageWait() time.Duration {
	if s.Updates == 0 {
		return 0
	}
	return s.ControllerWait / time.Duration(s.Updates)
}
