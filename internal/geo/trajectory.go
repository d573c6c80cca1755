// server/internal/geo/trajectory.go
package geo

import (
	"math"
	"sync"
	"time"
)

// Animator drives a smooth on-screen trajectory between discrete telemetry
// points. Its output is presentation state only: interpolated positions go to
// the emit callback and are never persisted or treated as telemetry.
//
// The server never runs an Animator. Dashboards construct one per tracked
// vehicle, tuned with the steps and epsilon the position endpoint advertises,
// and feed it the raw position events from the websocket stream.
//
// Each MoveTo cancels any interpolation still in flight, and Stop cancels
// everything; a closed referral view must leave no timers behind.
type Animator struct {
	steps    int
	interval time.Duration
	epsilon  float64 // degrees; deltas at or below this snap without animation
	emit     func(lat, lon float64)

	mu        sync.Mutex
	displayed *struct{ lat, lon float64 }
	cancel    chan struct{}
	stopped   bool
}

func NewAnimator(steps int, interval time.Duration, epsilonDeg float64, emit func(lat, lon float64)) *Animator {
	if steps <= 0 {
		steps = 24
	}
	if interval <= 0 {
		interval = 40 * time.Millisecond
	}
	return &Animator{
		steps:    steps,
		interval: interval,
		epsilon:  epsilonDeg,
		emit:     emit,
	}
}

// MoveTo reacts to a new raw coordinate. Small deltas snap directly; larger
// ones interpolate from the last displayed position over the configured step
// count with a cubic ease-out curve.
func (a *Animator) MoveTo(lat, lon float64) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.cancelLocked()

	from := a.displayed
	if from == nil || (math.Abs(lat-from.lat) <= a.epsilon && math.Abs(lon-from.lon) <= a.epsilon) {
		a.displayed = &struct{ lat, lon float64 }{lat, lon}
		a.mu.Unlock()
		a.emit(lat, lon)
		return
	}

	startLat, startLon := from.lat, from.lon
	cancel := make(chan struct{})
	a.cancel = cancel
	a.mu.Unlock()

	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for i := 1; i <= a.steps; i++ {
			select {
			case <-cancel:
				return
			case <-ticker.C:
			}
			t := easeOutCubic(float64(i) / float64(a.steps))
			curLat := startLat + (lat-startLat)*t
			curLon := startLon + (lon-startLon)*t

			a.mu.Lock()
			if a.cancel != cancel || a.stopped {
				a.mu.Unlock()
				return
			}
			a.displayed = &struct{ lat, lon float64 }{curLat, curLon}
			a.mu.Unlock()
			a.emit(curLat, curLon)
		}
	}()
}

// Displayed returns the current on-screen position, or false before the first
// coordinate arrives.
func (a *Animator) Displayed() (lat, lon float64, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.displayed == nil {
		return 0, 0, false
	}
	return a.displayed.lat, a.displayed.lon, true
}

// Stop cancels any in-flight interpolation. The animator accepts no further
// moves afterwards.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.cancelLocked()
}

func (a *Animator) cancelLocked() {
	if a.cancel != nil {
		close(a.cancel)
		a.cancel = nil
	}
}

func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}
